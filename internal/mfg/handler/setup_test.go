package handler

import (
	"testing"

	"github.com/bitfantasy/nimo-mfg/internal/mfg/testutil"
	"go.uber.org/zap"
)

func setupTest(t *testing.T, opts ...testutil.Options) *testutil.TestEnv {
	t.Helper()
	env := testutil.Setup(t, opts...)
	RegisterRoutes(env.Router, NewHandlers(env.Services, env.Hub, zap.NewNop()))
	return env
}

// withField copies body with key set to value
func withField(body map[string]interface{}, key string, value interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(body)+1)
	for k, v := range body {
		out[k] = v
	}
	out[key] = value
	return out
}

func fieldErrors(resp map[string]interface{}) map[string]string {
	out := map[string]string{}
	list, _ := resp["errors"].([]interface{})
	for _, item := range list {
		fe, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		field, _ := fe["field"].(string)
		msg, _ := fe["message"].(string)
		out[field] = msg
	}
	return out
}
