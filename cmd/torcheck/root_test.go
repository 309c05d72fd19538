package main

import (
	"net"
	"testing"

	"github.com/nao1215/torstream"
)

// TestNewRootCmd tests the root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "torcheck [proxy-address]" {
			t.Errorf("expected use 'torcheck [proxy-address]', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has long description", func(t *testing.T) {
		t.Parallel()
		if cmd.Long == "" {
			t.Error("expected non-empty long description")
		}
	})

	t.Run("has version", func(t *testing.T) {
		t.Parallel()
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has verbose flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("verbose")
		if flag == nil {
			t.Fatal("expected verbose flag")
		}
		if flag.Shorthand != "v" {
			t.Errorf("expected shorthand 'v', got %q", flag.Shorthand)
		}
	})

	t.Run("has check target flags", func(t *testing.T) {
		t.Parallel()

		clear := cmd.Flags().Lookup("clear-target")
		if clear == nil {
			t.Fatal("expected clear-target flag")
		}
		if clear.DefValue != defaultClearTarget {
			t.Errorf("expected default %q, got %q", defaultClearTarget, clear.DefValue)
		}

		onion := cmd.Flags().Lookup("onion-target")
		if onion == nil {
			t.Fatal("expected onion-target flag")
		}
		if onion.DefValue != defaultOnionTarget {
			t.Errorf("expected default %q, got %q", defaultOnionTarget, onion.DefValue)
		}

		if cmd.Flags().Lookup("timeout") == nil {
			t.Error("expected timeout flag")
		}
	})

	t.Run("has version subcommand", func(t *testing.T) {
		t.Parallel()

		hasVersion := false
		for _, sub := range cmd.Commands() {
			if sub.Use == "version" {
				hasVersion = true
			}
		}
		if !hasVersion {
			t.Error("expected version subcommand")
		}
	})

	t.Run("rejects more than one argument", func(t *testing.T) {
		t.Parallel()

		cmd := NewRootCmd()
		cmd.SetArgs([]string{"127.0.0.1:9050", "extra"})
		if err := cmd.Execute(); err == nil {
			t.Error("expected error for too many arguments")
		}
	})

	t.Run("default onion target is a valid v3 address", func(t *testing.T) {
		t.Parallel()

		// Guard against the default rotting the way v2 targets did.
		host, _, err := net.SplitHostPort(defaultOnionTarget)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !torstream.IsValidV3Address(host) {
			t.Errorf("expected a valid v3 onion address, got %q", host)
		}
	})
}
