package config

import "testing"

func TestLoadSystemDefaults(t *testing.T) {
	sys, err := LoadSystem()
	if err != nil {
		t.Fatalf("LoadSystem: %v", err)
	}
	if sys.Kernel.MaxTasks <= 0 {
		t.Fatalf("expected positive MaxTasks, got %d", sys.Kernel.MaxTasks)
	}
	if sys.Track.SafetyLookaheadHops <= 0 {
		t.Fatalf("expected positive SafetyLookaheadHops, got %d", sys.Track.SafetyLookaheadHops)
	}
	if sys.UART.BaudRate != 2400 {
		t.Fatalf("expected default baud rate 2400, got %d", sys.UART.BaudRate)
	}
}

func TestValidateBaudRateRejectsUnsupported(t *testing.T) {
	if err := validateBaudRate(1337); err == nil {
		t.Fatal("expected error for unsupported baud rate")
	}
	if err := validateBaudRate(9600); err != nil {
		t.Fatalf("expected 9600 to be accepted, got %v", err)
	}
}
