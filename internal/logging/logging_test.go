package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLevelAndCaller(t *testing.T) {
	logger := Setup("debug", "json")
	defer Setup("info", "text")

	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.WithField("job_id", 5).Info("rejudging")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "rejudging", entry["msg"])
	assert.EqualValues(t, 5, entry["job_id"])
	assert.Contains(t, entry["caller"], "logging/logging_test.go:")
}

func TestSetupUnknownLevel(t *testing.T) {
	logger := Setup("chatty", "text")
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
}
