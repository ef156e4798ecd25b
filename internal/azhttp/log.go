// Copyright (c) Microsoft. All rights reserved.

package azhttp

import (
	"log/slog"

	azlog "github.com/Azure/azure-sdk-for-go/sdk/azcore/log"
)

// EnableLogging routes azcore pipeline diagnostics (requests, responses,
// retries) to logger at debug level. Passing nil turns the bridge off.
func EnableLogging(logger *slog.Logger) {
	if logger == nil {
		azlog.SetListener(nil)
		return
	}
	azlog.SetEvents(azlog.EventRequest, azlog.EventResponse, azlog.EventRetryPolicy)
	azlog.SetListener(func(ev azlog.Event, msg string) {
		logger.Debug(msg, "source", "azcore", "event", string(ev))
	})
}
