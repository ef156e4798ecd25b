// Copyright (c) Microsoft. All rights reserved.

// Command foundryctl inspects and talks to Azure AI Foundry agents.
//
// Settings are read from appsettings files, .env and the environment; see
// package config. Typical use:
//
//	foundryctl agents list
//	foundryctl ask --instructions "You are terse." "What is Azure AI Foundry?"
//	foundryctl threads messages thread_abc
//	foundryctl runs steps thread_abc run_xyz
//	foundryctl chat --stream "Write a haiku about Go"
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(newApp()).Execute(); err != nil {
		os.Exit(1)
	}
}
