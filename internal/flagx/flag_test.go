package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	allowed := []string{"-a", "-s", "-config"}

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "separate values",
			args: []string{"-a", ":3000", "-x", "1", "-s", "secret"},
			want: []string{"-a", ":3000", "-s", "secret"},
		},
		{
			name: "inline values",
			args: []string{"-a=:3000", "-x=1", "--config=cfg.json"},
			want: []string{"-a=:3000", "--config=cfg.json"},
		},
		{
			name: "double dash with separate value",
			args: []string{"--config", "cfg.json", "extra"},
			want: []string{"--config", "cfg.json"},
		},
		{
			name: "flag followed by another flag keeps no value",
			args: []string{"-a", "-s", "secret"},
			want: []string{"-a", "-s", "secret"},
		},
		{
			name: "nothing allowed",
			args: []string{"-z", "1", "positional"},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, allowed))
		})
	}
}

func TestConfigPathFromArgs(t *testing.T) {
	assert.Equal(t, "a.json", ConfigPathFromArgs([]string{"-c", "a.json"}))
	assert.Equal(t, "b.json", ConfigPathFromArgs([]string{"-d", "dsn", "-config=b.json"}))
	assert.Equal(t, "c.json", ConfigPathFromArgs([]string{"--config", "c.json"}))
	assert.Equal(t, "", ConfigPathFromArgs([]string{"-d", "dsn"}))
}
