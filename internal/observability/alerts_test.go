package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
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

// Keeps the shipped Prometheus rules in sync with the metric names this
// package registers.
func TestAlertRulesReferenceRegisteredMetrics(t *testing.T) {
	path := filepath.Join("..", "..", "deploy", "prometheus", "alerts", "tallerix.yml")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var spec alertSpec
	require.NoError(t, yaml.Unmarshal(data, &spec))
	require.NotEmpty(t, spec.Groups)

	for _, group := range spec.Groups {
		require.NotEmpty(t, group.Rules, "group %s has no rules", group.Name)
		for _, rule := range group.Rules {
			require.NotEmpty(t, rule.Alert)
			require.Contains(t, rule.Expr, "tallerix_", "rule %s must target a registered metric", rule.Alert)
			require.NotEmpty(t, rule.Labels["severity"], "rule %s needs a severity label", rule.Alert)
			require.NotEmpty(t, rule.Annotations["summary"], "rule %s needs a summary", rule.Alert)
		}
	}
}

func TestWarmupAlertWatchesJobFailures(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "deploy", "prometheus", "alerts", "tallerix.yml"))
	require.NoError(t, err)

	var spec alertSpec
	require.NoError(t, yaml.Unmarshal(data, &spec))

	found := false
	for _, group := range spec.Groups {
		for _, rule := range group.Rules {
			if strings.Contains(rule.Expr, "tallerix_jobs_failures_total") {
				found = true
			}
		}
	}
	require.True(t, found, "a rule must watch background job failures")
}
