package main

import (
	"context"
	"strings"
	"testing"

	"github.com/georgemunganga/qrpay/internal/config"
)

func TestRequireSharedStore(t *testing.T) {
	tests := []struct {
		driver  string
		wantErr bool
	}{
		{config.DriverMemory, true},
		{config.DriverSQLite, false},
		{config.DriverPostgres, false},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			err := requireSharedStore(config.Config{StoreDriver: tt.driver})
			if (err != nil) != tt.wantErr {
				t.Fatalf("requireSharedStore(%s) err = %v", tt.driver, err)
			}
			if err != nil && !strings.Contains(err.Error(), config.DriverSQLite) {
				t.Fatalf("error does not name a shared driver: %v", err)
			}
		})
	}
}

func TestCustomerAndCashierRejectMemoryStore(t *testing.T) {
	t.Setenv("STORE_DRIVER", config.DriverMemory)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	for _, args := range [][]string{
		{"qrpay", "--env-file", t.TempDir() + "/none.env", "customer"},
		{"qrpay", "--env-file", t.TempDir() + "/none.env", "cashier", "--payload", "QRP-1", "--code", "1"},
	} {
		err := newApp().Run(ctx, args)
		if err == nil || !strings.Contains(err.Error(), "STORE_DRIVER=memory") {
			t.Fatalf("%v: err = %v", args[3:], err)
		}
	}
}
