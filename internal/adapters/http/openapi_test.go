package http_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
)

// findOpenAPISpec locates the openapi.yaml file by walking up from the test directory.
func findOpenAPISpec(t *testing.T) string {
	dir, _ := os.Getwd()

	for i := 0; i < 5; i++ {
		candidate := filepath.Join(dir, "api", "openapi.yaml")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		dir = filepath.Dir(dir)
	}

	t.Fatalf("could not find api/openapi.yaml")
	return ""
}

// TestOpenAPISpec validates the OpenAPI specification is valid.
func TestOpenAPISpec(t *testing.T) {
	specPath := findOpenAPISpec(t)
	data, err := os.ReadFile(specPath)
	if err != nil {
		t.Fatalf("failed to read openapi.yaml: %v", err)
	}

	loader := &openapi3.Loader{IsExternalRefsAllowed: false}
	spec, err := loader.LoadFromData(data)
	if err != nil {
		t.Fatalf("failed to parse OpenAPI spec: %v", err)
	}

	if err := spec.Validate(context.Background()); err != nil {
		t.Fatalf("OpenAPI spec validation failed: %v", err)
	}

	expectedPaths := []string{
		"/v1/health",
		"/v1/ready",
		"/v1/service-areas",
		"/v1/service-areas/{id}",
		"/v1/allocations",
		"/v1/allocations/{id}",
		"/v1/travel-modes",
		"/v1/facilities",
		"/v1/facilities/nearby",
		"/v1/facilities/{id}",
		"/v1/demand-points",
		"/v1/demand-points/{id}",
		"/v1/jobs",
		"/v1/jobs/{id}",
		"/v1/jobs/{id}/cancel",
		"/v1/analyses",
		"/v1/analyses/{id}",
		"/v1/analyses/{id}/geojson",
		"/graphql",
	}

	for _, path := range expectedPaths {
		if item := spec.Paths.Find(path); item == nil {
			t.Errorf("expected path %s not found in spec", path)
		}
	}
}

// TestOpenAPISpec_Schemas checks that the core schemas are declared.
func TestOpenAPISpec_Schemas(t *testing.T) {
	specPath := findOpenAPISpec(t)
	data, err := os.ReadFile(specPath)
	if err != nil {
		t.Fatalf("failed to read openapi.yaml: %v", err)
	}

	loader := &openapi3.Loader{IsExternalRefsAllowed: false}
	spec, err := loader.LoadFromData(data)
	if err != nil {
		t.Fatalf("failed to parse OpenAPI spec: %v", err)
	}

	expectedSchemas := []string{
		"Facility",
		"DemandPoint",
		"ServiceAreaParams",
		"AllocationParams",
		"Analysis",
		"SolveJob",
		"TravelMode",
		"APIError",
	}

	for _, name := range expectedSchemas {
		if _, ok := spec.Components.Schemas[name]; !ok {
			t.Errorf("expected schema %s not found in spec", name)
		}
	}

	// The deprecated coverage alias must be flagged as such
	item := spec.Paths.Find("/v1/coverage")
	if item == nil {
		t.Fatal("expected /v1/coverage path in spec")
	}
	if item.Post == nil || !item.Post.Deprecated {
		t.Error("expected /v1/coverage POST to be marked deprecated")
	}
}
