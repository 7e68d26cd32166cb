package config

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNewProfileManagerCreatesDefaults(t *testing.T) {
	dir := t.TempDir()

	pm, err := NewProfileManager(dir)
	if err != nil {
		t.Fatalf("NewProfileManager() error = %v", err)
	}

	if len(pm.ListProfiles()) < 2 {
		t.Errorf("ListProfiles() = %v, want local and sepolia", pm.ListProfiles())
	}

	current, err := pm.GetCurrentProfile()
	if err != nil {
		t.Fatalf("GetCurrentProfile() error = %v", err)
	}
	if current.Name != "local" {
		t.Errorf("current profile = %s, want local", current.Name)
	}
	if current.ChainID != 1337 {
		t.Errorf("local chain id = %d, want 1337", current.ChainID)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	dir := t.TempDir()

	pm, err := NewProfileManager(dir)
	if err != nil {
		t.Fatalf("NewProfileManager() error = %v", err)
	}

	profile := &Profile{
		Name:    "devnet",
		ChainID: 31337,
		Endpoints: []EndpointConfig{
			{Name: "dev", Priority: 1, RPC: "http://127.0.0.1:8545"},
		},
	}

	if err := pm.SaveProfile(profile); err != nil {
		t.Fatalf("SaveProfile() error = %v", err)
	}

	// 重新加载,验证落盘内容
	pm2, err := NewProfileManager(dir)
	if err != nil {
		t.Fatalf("NewProfileManager() reload error = %v", err)
	}

	got, err := pm2.GetProfile("devnet")
	if err != nil {
		t.Fatalf("GetProfile(devnet) error = %v", err)
	}

	if got.ChainID != 31337 {
		t.Errorf("ChainID = %d, want 31337", got.ChainID)
	}
	if got.Timeout == 0 || got.ReceiptInterval == 0 {
		t.Errorf("defaults not applied: timeout=%v interval=%v", got.Timeout, got.ReceiptInterval)
	}
	if got.KeystorePath == "" || got.RecordPath == "" {
		t.Errorf("default paths not applied: %+v", got)
	}
}

func TestSwitchProfile(t *testing.T) {
	dir := t.TempDir()

	pm, err := NewProfileManager(dir)
	if err != nil {
		t.Fatalf("NewProfileManager() error = %v", err)
	}

	if err := pm.SwitchProfile("sepolia"); err != nil {
		t.Fatalf("SwitchProfile(sepolia) error = %v", err)
	}

	pm2, err := NewProfileManager(dir)
	if err != nil {
		t.Fatalf("NewProfileManager() reload error = %v", err)
	}
	current, err := pm2.GetCurrentProfile()
	if err != nil {
		t.Fatalf("GetCurrentProfile() error = %v", err)
	}
	if current.Name != "sepolia" {
		t.Errorf("current profile = %s, want sepolia", current.Name)
	}

	if err := pm.SwitchProfile("nope"); err == nil {
		t.Error("SwitchProfile(nope) expected error")
	}
}

func TestPrimaryRPC(t *testing.T) {
	tests := []struct {
		name      string
		endpoints []EndpointConfig
		want      string
		wantErr   bool
	}{
		{
			name: "single endpoint",
			endpoints: []EndpointConfig{
				{Name: "a", Priority: 1, RPC: "http://a"},
			},
			want: "http://a",
		},
		{
			name: "priority order",
			endpoints: []EndpointConfig{
				{Name: "backup", Priority: 2, RPC: "http://backup"},
				{Name: "primary", Priority: 1, RPC: "http://primary"},
			},
			want: "http://primary",
		},
		{
			name: "skips endpoints without rpc",
			endpoints: []EndpointConfig{
				{Name: "ws-only", Priority: 1, WS: "ws://a"},
				{Name: "rpc", Priority: 9, RPC: "http://b"},
			},
			want: "http://b",
		},
		{
			name:    "no endpoints",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Profile{Name: "test", Endpoints: tt.endpoints}
			got, err := p.PrimaryRPC()
			if (err != nil) != tt.wantErr {
				t.Errorf("PrimaryRPC() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("PrimaryRPC() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDurationJSON(t *testing.T) {
	d := Duration(90 * time.Second)

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `"1m30s"` {
		t.Errorf("Marshal() = %s, want \"1m30s\"", data)
	}

	var got Duration
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got != d {
		t.Errorf("round trip = %v, want %v", time.Duration(got), time.Duration(d))
	}

	if err := json.Unmarshal([]byte(`"bogus"`), &got); err == nil {
		t.Error("Unmarshal(bogus) expected error")
	}
}
