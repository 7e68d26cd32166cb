package artifact

import (
	"encoding/json"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testABI = `[
  {"name":"balanceOf","type":"function","stateMutability":"view",
   "inputs":[{"name":"account","type":"address"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"name":"transfer","type":"function","stateMutability":"nonpayable",
   "inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],
   "outputs":[{"name":"","type":"bool"}]}
]`

func writeTestArtifact(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "Token.json")
	art := map[string]interface{}{
		"contractName": "Token",
		"abi":          json.RawMessage(testABI),
		"bytecode":     "0x6080604052",
	}
	data, err := json.Marshal(art)
	if err != nil {
		t.Fatalf("marshal test artifact: %v", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("write test artifact: %v", err)
	}
	return path
}

func TestLoadArtifact(t *testing.T) {
	dir := t.TempDir()
	path := writeTestArtifact(t, dir)

	art, err := LoadArtifact(path)
	if err != nil {
		t.Fatalf("LoadArtifact() error = %v", err)
	}
	if art.ContractName != "Token" {
		t.Errorf("ContractName = %s, want Token", art.ContractName)
	}

	parsed, err := art.ParsedABI()
	if err != nil {
		t.Fatalf("ParsedABI() error = %v", err)
	}
	if _, ok := parsed.Methods["transfer"]; !ok {
		t.Error("parsed abi missing transfer method")
	}
}

func TestLoadArtifactInvalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		body string
	}{
		{"missing abi", `{"contractName":"Token","bytecode":"0x60"}`},
		{"missing bytecode", `{"contractName":"Token","abi":` + testABI + `}`},
		{"bad abi", `{"contractName":"Token","abi":[{"type":"bogus"}],"bytecode":"0x60"}`},
		{"not json", `garbage`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tt.name, " ", "_")+".json")
			if err := os.WriteFile(path, []byte(tt.body), 0600); err != nil {
				t.Fatalf("write: %v", err)
			}
			if _, err := LoadArtifact(path); err == nil {
				t.Error("LoadArtifact() expected error")
			}
		})
	}
}

func TestRecordNetworkLookup(t *testing.T) {
	rec := &Record{
		ContractName: "Token",
		ABI:          json.RawMessage(testABI),
		Networks: map[string]NetworkEntry{
			"1337": {
				Address:         "0x5FbDB2315678afecb367f032d93F642f64180aa3",
				TransactionHash: "0xabc",
			},
		},
	}

	entry, err := rec.Network(big.NewInt(1337))
	if err != nil {
		t.Fatalf("Network(1337) error = %v", err)
	}
	if entry.Address != "0x5FbDB2315678afecb367f032d93F642f64180aa3" {
		t.Errorf("address = %s", entry.Address)
	}

	// 缺失的网络: 必须是ErrNoDeployment且错误信息包含链ID
	_, err = rec.Network(big.NewInt(11155111))
	if !errors.Is(err, ErrNoDeployment) {
		t.Fatalf("Network(11155111) error = %v, want ErrNoDeployment", err)
	}
	if !strings.Contains(err.Error(), "11155111") {
		t.Errorf("error %q does not name the network id", err)
	}
}

func TestRecordRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deployments", "Token.json")

	art := &Artifact{
		ContractName: "Token",
		ABI:          json.RawMessage(testABI),
		Bytecode:     "0x6080604052",
	}

	rec := NewRecord(art)
	rec.SetNetwork(big.NewInt(1337), NetworkEntry{
		Address:         "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		TransactionHash: "0xdeadbeef",
		DeployedAt:      time.Now().UTC(),
	})

	if err := rec.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := LoadRecord(path)
	if err != nil {
		t.Fatalf("LoadRecord() error = %v", err)
	}

	entry, err := got.Network(big.NewInt(1337))
	if err != nil {
		t.Fatalf("Network(1337) after reload error = %v", err)
	}
	if entry.TransactionHash != "0xdeadbeef" {
		t.Errorf("tx hash = %s, want 0xdeadbeef", entry.TransactionHash)
	}

	if _, err := got.ParsedABI(); err != nil {
		t.Errorf("ParsedABI() after reload error = %v", err)
	}
}

func TestSetNetworkOverwrites(t *testing.T) {
	rec := &Record{ABI: json.RawMessage(testABI)}

	rec.SetNetwork(big.NewInt(5), NetworkEntry{Address: "0x01"})
	rec.SetNetwork(big.NewInt(5), NetworkEntry{Address: "0x02"})

	entry, err := rec.Network(big.NewInt(5))
	if err != nil {
		t.Fatalf("Network(5) error = %v", err)
	}
	if entry.Address != "0x02" {
		t.Errorf("address = %s, want 0x02 (重复部署应覆盖旧地址)", entry.Address)
	}
}
