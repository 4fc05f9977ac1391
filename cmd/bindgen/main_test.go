package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindUserConfig(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  string
		want string
	}{
		{name: "none", args: []string{"generate"}},
		{name: "equals", args: []string{"--config=ci.yaml", "generate"}, want: "ci.yaml"},
		{name: "separate", args: []string{"generate", "--config", "ci.toml"}, want: "ci.toml"},
		{name: "dangling", args: []string{"--config"}},
		{name: "env", args: []string{"generate"}, env: "env.json", want: "env.json"},
		{name: "flag beats env", args: []string{"--config=flag.json"}, env: "env.json", want: "flag.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BINDGEN_CONFIG", tt.env)
			assert.Equal(t, tt.want, findUserConfig(tt.args))
		})
	}
}
