package addon

import (
	"testing"

	"go.uber.org/zap"
)

func TestRegistry_Register(t *testing.T) {
	logger := zap.NewNop()
	registry := NewRegistry(logger)

	// Create a mock addon
	manifest := &Manifest{
		Name:   "flink-sql",
		Engine: EngineFlinkSQL,
		dir:    "/tmp/test",
	}

	addon := &Addon{
		Manifest: manifest,
	}

	err := registry.Register(addon)
	if err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	// Check count
	if registry.Count() != 1 {
		t.Errorf("expected count 1, got %d", registry.Count())
	}
}

func TestRegistry_Duplicate(t *testing.T) {
	logger := zap.NewNop()
	registry := NewRegistry(logger)

	// Create a mock addon
	manifest := &Manifest{
		Name:   "flink-sql",
		Engine: EngineFlinkSQL,
		dir:    "/tmp/test",
	}

	addon1 := &Addon{
		Manifest: manifest,
	}

	addon2 := &Addon{
		Manifest: manifest,
	}

	// Register first addon
	err := registry.Register(addon1)
	if err != nil {
		t.Fatalf("First Register() failed: %v", err)
	}

	// Try to register duplicate
	err = registry.Register(addon2)
	if err == nil {
		t.Fatal("Register() should fail for duplicate add-on")
	}

	_, ok := err.(*AddonAlreadyRegisteredError)
	if !ok {
		t.Errorf("expected AddonAlreadyRegisteredError, got %T", err)
	}
}

func TestRegistry_Get(t *testing.T) {
	logger := zap.NewNop()
	registry := NewRegistry(logger)

	// Create a mock addon
	manifest := &Manifest{
		Name:   "flink-sql",
		Engine: EngineFlinkSQL,
		dir:    "/tmp/test",
	}

	addon := &Addon{
		Manifest: manifest,
	}

	// Try to get before registering
	_, ok := registry.Get("flink-sql")
	if ok {
		t.Error("Get() should return false for non-existent add-on")
	}

	// Register addon
	registry.Register(addon)

	// Get after registering
	retrieved, ok := registry.Get("flink-sql")
	if !ok {
		t.Fatal("Get() should return true for existing add-on")
	}

	if retrieved.Name() != "flink-sql" {
		t.Errorf("expected name 'flink-sql', got '%s'", retrieved.Name())
	}
}

func TestRegistry_LookupByEngine(t *testing.T) {
	logger := zap.NewNop()
	registry := NewRegistry(logger)

	// Create mock addons; the registry itself does not validate engines
	flinkAddon := &Addon{
		Manifest: &Manifest{
			Name:   "flink-sql",
			Engine: EngineFlinkSQL,
			dir:    "/tmp/flink",
		},
	}

	sparkAddon := &Addon{
		Manifest: &Manifest{
			Name:   "spark-sql",
			Engine: "SparkSQL",
			dir:    "/tmp/spark",
		},
	}

	// Register addons
	registry.Register(flinkAddon)
	registry.Register(sparkAddon)

	// Lookup FlinkSQL
	flinkAddons := registry.LookupByEngine(EngineFlinkSQL)
	if len(flinkAddons) != 1 {
		t.Errorf("expected 1 FlinkSQL add-on, got %d", len(flinkAddons))
	}

	if len(flinkAddons) > 0 && flinkAddons[0].Name() != "flink-sql" {
		t.Errorf("expected name 'flink-sql', got '%s'", flinkAddons[0].Name())
	}

	// Lookup SparkSQL
	sparkAddons := registry.LookupByEngine("SparkSQL")
	if len(sparkAddons) != 1 {
		t.Errorf("expected 1 SparkSQL add-on, got %d", len(sparkAddons))
	}

	// Lookup non-existent engine
	trinoAddons := registry.LookupByEngine("Trino")
	if len(trinoAddons) != 0 {
		t.Errorf("expected 0 Trino add-ons, got %d", len(trinoAddons))
	}
}

func TestRegistry_LookupByCapability(t *testing.T) {
	logger := zap.NewNop()
	registry := NewRegistry(logger)

	diagAddon := &Addon{
		Manifest: &Manifest{
			Name:         "flink-diag",
			Engine:       EngineFlinkSQL,
			Capabilities: []string{CapabilityDiagnostics},
			dir:          "/tmp/diag",
		},
	}

	complAddon := &Addon{
		Manifest: &Manifest{
			Name:         "flink-compl",
			Engine:       EngineFlinkSQL,
			Capabilities: []string{CapabilityCompletion},
			dir:          "/tmp/compl",
		},
	}

	registry.Register(diagAddon)
	registry.Register(complAddon)

	diag := registry.LookupByCapability(EngineFlinkSQL, CapabilityDiagnostics)
	if len(diag) != 1 {
		t.Fatalf("expected 1 diagnostics add-on, got %d", len(diag))
	}
	if diag[0].Name() != "flink-diag" {
		t.Errorf("expected name 'flink-diag', got '%s'", diag[0].Name())
	}

	compl := registry.LookupByCapability(EngineFlinkSQL, CapabilityCompletion)
	if len(compl) != 1 {
		t.Fatalf("expected 1 completion add-on, got %d", len(compl))
	}
	if compl[0].Name() != "flink-compl" {
		t.Errorf("expected name 'flink-compl', got '%s'", compl[0].Name())
	}

	// No add-ons for an unknown engine
	none := registry.LookupByCapability("Trino", CapabilityDiagnostics)
	if len(none) != 0 {
		t.Errorf("expected 0 add-ons, got %d", len(none))
	}
}

func TestRegistry_List(t *testing.T) {
	logger := zap.NewNop()
	registry := NewRegistry(logger)

	// Initially empty
	list := registry.List()
	if len(list) != 0 {
		t.Errorf("expected 0 add-ons, got %d", len(list))
	}

	// Register addons
	registry.Register(&Addon{
		Manifest: &Manifest{
			Name:   "addon1",
			Engine: EngineFlinkSQL,
			dir:    "/tmp/a1",
		},
	})

	registry.Register(&Addon{
		Manifest: &Manifest{
			Name:   "addon2",
			Engine: EngineFlinkSQL,
			dir:    "/tmp/a2",
		},
	})

	// List should return both
	list = registry.List()
	if len(list) != 2 {
		t.Errorf("expected 2 add-ons, got %d", len(list))
	}
}

func TestRegistry_Unregister(t *testing.T) {
	logger := zap.NewNop()
	registry := NewRegistry(logger)

	// Create and register addon
	manifest := &Manifest{
		Name:   "flink-sql",
		Engine: EngineFlinkSQL,
		dir:    "/tmp/test",
	}

	addon := &Addon{
		Manifest: manifest,
	}

	registry.Register(addon)

	// Verify it's registered
	if registry.Count() != 1 {
		t.Errorf("expected count 1, got %d", registry.Count())
	}

	// Unregister
	registry.Unregister("flink-sql")

	// Verify it's gone
	if registry.Count() != 0 {
		t.Errorf("expected count 0, got %d", registry.Count())
	}

	_, ok := registry.Get("flink-sql")
	if ok {
		t.Error("Get() should return false after unregister")
	}

	// Engine index should be empty too
	if len(registry.LookupByEngine(EngineFlinkSQL)) != 0 {
		t.Error("LookupByEngine() should return nothing after unregister")
	}
}
