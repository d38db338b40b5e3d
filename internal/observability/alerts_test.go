package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

type alertRule struct {
	Alert       string            `yaml:"alert"`
	Expr        string            `yaml:"expr"`
	For         string            `yaml:"for"`
	Labels      map[string]string `yaml:"labels"`
	Annotations map[string]string `yaml:"annotations"`
}

type alertGroup struct {
	Name  string      `yaml:"name"`
	Rules []alertRule `yaml:"rules"`
}

type alertSpec struct {
	Groups []alertGroup `yaml:"groups"`
}

func TestProgressAlertRules(t *testing.T) {
	path := filepath.Join("..", "..", "deploy", "prometheus", "alerts", "progress.yml")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read alert file: %v", err)
	}

	var spec alertSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		t.Fatalf("failed to unmarshal alert file: %v", err)
	}

	if len(spec.Groups) == 0 {
		t.Fatal("expected at least one alert group")
	}

	seen := map[string]alertRule{}
	for _, group := range spec.Groups {
		for _, rule := range group.Rules {
			if rule.Alert == "" || rule.Expr == "" {
				t.Fatalf("rule missing alert name or expression: %+v", rule)
			}
			if rule.Labels["severity"] == "" {
				t.Fatalf("rule %s missing severity label", rule.Alert)
			}
			if rule.Annotations["summary"] == "" {
				t.Fatalf("rule %s missing summary annotation", rule.Alert)
			}
			seen[rule.Alert] = rule
		}
	}

	failures, ok := seen["ProgressRecalculationFailures"]
	if !ok {
		t.Fatal("expected ProgressRecalculationFailures rule")
	}
	if !strings.Contains(failures.Expr, "loopworks_progress_recalculations_total") {
		t.Fatalf("unexpected expression: %s", failures.Expr)
	}

	if _, ok := seen["ProgressJobStalled"]; !ok {
		t.Fatal("expected ProgressJobStalled rule")
	}
}
