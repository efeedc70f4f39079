package security

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewAuditor(t *testing.T) {
	auditor := NewAuditor(AuditOptions{IncludeFilesystem: true})
	if auditor == nil {
		t.Fatal("NewAuditor returned nil")
	}
}

func TestAuditFilesystemConfigWorldReadable(t *testing.T) {
	tmpDir := t.TempDir()

	configPath := filepath.Join(tmpDir, "skreaver.yaml")
	if err := os.WriteFile(configPath, []byte("server: {}\n"), 0644); err != nil {
		t.Fatal(err)
	}

	opts := AuditOptions{
		ConfigPath:        configPath,
		StateDir:          tmpDir,
		IncludeFilesystem: true,
		IncludeServer:     false,
	}

	report, err := RunAudit(opts)
	if err != nil {
		t.Fatalf("RunAudit: %v", err)
	}

	found := false
	for _, f := range report.Findings {
		if f.CheckID == "fs.config_world_readable" {
			found = true
			if f.Severity != SeverityCritical {
				t.Errorf("expected critical severity, got %s", f.Severity)
			}
		}
	}
	if !found {
		t.Error("expected to find world-readable config finding")
	}
}

func TestAuditWorldWritableDir(t *testing.T) {
	tmpDir := t.TempDir()

	credsDir := filepath.Join(tmpDir, "credentials")
	if err := os.Mkdir(credsDir, 0777); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(credsDir, 0777); err != nil {
		t.Fatal(err)
	}

	opts := AuditOptions{
		StateDir:          tmpDir,
		IncludeFilesystem: true,
		IncludeServer:     false,
	}

	report, err := RunAudit(opts)
	if err != nil {
		t.Fatalf("RunAudit: %v", err)
	}

	found := false
	for _, f := range report.Findings {
		if f.CheckID == "fs.state_dir_world_writable" {
			found = true
			if f.Severity != SeverityCritical {
				t.Errorf("expected critical severity, got %s", f.Severity)
			}
		}
	}
	if !found {
		t.Error("expected to find world-writable state directory finding")
	}
}

func TestRunAuditLoadsConfigFromPath(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "skreaver.yaml")
	contents := "server:\n  host: 0.0.0.0\n"
	if err := os.WriteFile(configPath, []byte(contents), 0600); err != nil {
		t.Fatal(err)
	}

	report, err := RunAudit(AuditOptions{
		ConfigPath:    configPath,
		IncludeServer: true,
	})
	if err != nil {
		t.Fatalf("RunAudit: %v", err)
	}

	found := false
	for _, f := range report.Findings {
		if f.CheckID == "server.bind_no_auth" {
			found = true
		}
	}
	if !found {
		t.Error("expected server.bind_no_auth finding from loaded config")
	}
}

func TestComputeSummary(t *testing.T) {
	findings := []AuditFinding{
		{CheckID: "test1", Severity: SeverityCritical},
		{CheckID: "test2", Severity: SeverityCritical},
		{CheckID: "test3", Severity: SeverityWarn},
		{CheckID: "test4", Severity: SeverityInfo},
		{CheckID: "test5", Severity: SeverityInfo},
		{CheckID: "test6", Severity: SeverityInfo},
	}

	summary := computeSummary(findings)

	if summary.Critical != 2 {
		t.Errorf("expected 2 critical, got %d", summary.Critical)
	}
	if summary.Warn != 1 {
		t.Errorf("expected 1 warn, got %d", summary.Warn)
	}
	if summary.Info != 3 {
		t.Errorf("expected 3 info, got %d", summary.Info)
	}
}

func TestAuditReportHasCritical(t *testing.T) {
	report := &AuditReport{
		Findings: []AuditFinding{{CheckID: "x", Severity: SeverityCritical}},
		Summary:  AuditSummary{Critical: 1},
	}
	if !report.HasCritical() {
		t.Error("expected HasCritical to be true")
	}
}

func TestAuditorRunIncludesFilesystem(t *testing.T) {
	tmpDir := t.TempDir()
	auditor := NewAuditor(AuditOptions{StateDir: tmpDir})

	report, err := auditor.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report == nil {
		t.Fatal("expected non-nil report")
	}
}
