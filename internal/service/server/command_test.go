package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alarm-orchestrator/internal/config"
)

func TestResolveListenAddress(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		configAddr string
		override   string
		want       string
		wantErr    bool
	}{
		{"override wins", "server.example.com:8080", ":9090", ":9090", false},
		{"port from config", "server.example.com:8080", "", ":8080", false},
		{"empty config", "", "", "", true},
		{"malformed config", "no-port-here", "", "", true},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			got, err := resolveListenAddress(testCase.configAddr, testCase.override)
			if testCase.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			require.Equal(t, testCase.want, got)
		})
	}
}

func TestBuildSinksSkipsEmptyEndpoints(t *testing.T) {
	t.Parallel()

	logSink, notifySink, err := buildSinks(&config.Config{Timeout: time.Second})
	require.NoError(t, err)
	require.Nil(t, logSink)
	require.Nil(t, notifySink)
}

func TestBuildSinksConstructsClients(t *testing.T) {
	t.Parallel()

	logSink, notifySink, err := buildSinks(&config.Config{
		LogSinkURL:    "http://logs.example.com",
		NotifySinkURL: "http://notify.example.com",
		Timeout:       time.Second,
	})
	require.NoError(t, err)
	require.NotNil(t, logSink)
	require.NotNil(t, notifySink)
}
