package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type testApp struct {
	runError   bool
	usageError bool
}

func (a testApp) Run() error {
	if a.runError {
		return errors.New("run error")
	}

	return nil
}

func (a testApp) UsageError() bool {
	return a.usageError
}

func TestRun(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		runError   bool
		usageError bool

		wantReturnCode int
	}{
		"Run and exit successfully":                        {},
		"Run and exit error":                               {runError: true, wantReturnCode: 1},
		"Run and exit with usage error":                    {usageError: true, runError: true, wantReturnCode: 2},
		"Run and return with usage error but no run error": {usageError: true, wantReturnCode: 0},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			rc := run(testApp{runError: tc.runError, usageError: tc.usageError})
			assert.Equal(t, tc.wantReturnCode, rc, "Return expected code")
		})
	}
}
