package auth

import (
	"context"
	"os"
)

// networkEnvVars maps network names to environment variable -> credential key.
var networkEnvVars = map[string]map[string]string{
	"instagram": {
		"INSTAGRAM_SESSIONID": "sessionid",
		"INSTAGRAM_CSRFTOKEN": "csrftoken",
	},
	"twitter": {
		"TWITTER_BEARER_TOKEN": BearerTokenKey,
	},
}

// EnvSource reads credentials from environment variables.
type EnvSource struct{}

// Credentials returns credentials for the given network from environment variables.
func (EnvSource) Credentials(_ context.Context, network string) (map[string]string, error) {
	envMap, ok := networkEnvVars[network]
	if !ok {
		return nil, nil //nolint:nilnil // unknown network has no credentials
	}

	creds := make(map[string]string)
	for envVar, key := range envMap {
		if value := os.Getenv(envVar); value != "" {
			creds[key] = value
		}
	}

	if len(creds) == 0 {
		return nil, nil //nolint:nilnil // no env vars set is not an error
	}
	return creds, nil
}

// EnvVarsForNetwork returns the environment variable names for a network.
func EnvVarsForNetwork(network string) []string {
	envMap, ok := networkEnvVars[network]
	if !ok {
		return nil
	}

	vars := make([]string, 0, len(envMap))
	for envVar := range envMap {
		vars = append(vars, envVar)
	}
	return vars
}
