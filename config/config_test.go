package config

import "testing"

func TestLoadEmbeddedDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") returned error: %v", err)
	}
	if cfg.Population.MaxNPCs <= 0 {
		t.Fatalf("expected positive MaxNPCs, got %d", cfg.Population.MaxNPCs)
	}
	if cfg.Derived.ArrivalThreshold32 != float32(cfg.Combat.ArrivalThreshold) {
		t.Fatalf("derived arrival threshold not computed")
	}
}

func TestCfgPanicsBeforeInit(t *testing.T) {
	global = nil
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic calling Cfg() before Init()")
		}
	}()
	Cfg()
}

func TestInitThenCfg(t *testing.T) {
	if err := Init(""); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	if Cfg().World.Width <= 0 {
		t.Fatalf("expected positive world width")
	}
}
