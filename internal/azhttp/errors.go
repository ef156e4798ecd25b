// Copyright (c) Microsoft. All rights reserved.

package azhttp

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"

	af "github.com/azure-ai-foundry/foundry-samples/go/agentframework"
)

// ParseError reads an error response body and returns a *[af.ServiceError]
// wrapping the sentinel that matches its status and code.
func ParseError(resp *http.Response) error {
	body, _ := runtime.Payload(resp)

	var apiErr struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    string `json:"code"`
		} `json:"error"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &apiErr)

	msg := apiErr.Error.Message
	if msg == "" {
		msg = apiErr.Message
	}
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	code := apiErr.Error.Code
	if code == "" {
		code = apiErr.Error.Type
	}

	return &af.ServiceError{
		StatusCode: resp.StatusCode,
		Message:    msg,
		Code:       code,
		RequestID:  requestID(resp.Header),
		Err:        af.ClassifyStatus(resp.StatusCode, code),
	}
}

func requestID(h http.Header) string {
	for _, k := range []string{"x-request-id", "apim-request-id", "x-ms-request-id"} {
		if v := h.Get(k); v != "" {
			return v
		}
	}
	return ""
}
