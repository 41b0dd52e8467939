package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"apkfetch/internal/db"
	"apkfetch/pkg/devenv"
)

const devDbPath = "<dev_state>/apkfetch.db"

const devConfig = `{
  account: {
    email: "",
    password: "",
    device_id: "",
    max_attempts: 3,
    cooldown_seconds: 5,
  },
  gateway: { base_url: "http://localhost:8080" },
  storefront: { cloudflare_bypass: false },
  database: { driver: "sqlite", file: "<dev_state>/apkfetch.db" },
}
`

func cmd(name string, args ...string) {
	cmd := exec.Command(name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	fullCmd := name
	for _, a := range args {
		fullCmd += " "
		fullCmd += a
	}

	fmt.Printf("$ %s\n", fullCmd)
	err := cmd.Run()
	if err != nil {
		os.Exit(1)
	}
}

func CreateLocalStack() error {
	err := os.Chdir("dev/local_stack")
	if err != nil {
		return err
	}
	cmd("docker", "compose", "up", "-d")
	return os.Chdir("../..")
}

func CreateEmptyDB() error {
	path, err := devenv.ResolvePath(devDbPath)
	if err != nil {
		return err
	}

	_, err = os.Stat(path)
	if err == nil {
		fmt.Println("database already created at", path)
		return nil
	}

	fmt.Println("creating database at", path)
	conn, err := db.OpenSqlite(path)
	if err != nil {
		return err
	}
	defer conn.Close()
	return db.EnsureSchema(context.Background(), conn, db.DialectSqlite)
}

// CreateConfig writes a config.local.json5 pointing at the dev database,
// an existing one is left alone.
func CreateConfig() error {
	_, err := os.Stat("config.local.json5")
	if err == nil {
		fmt.Println("config.local.json5 already exists")
		return nil
	}
	return os.WriteFile("config.local.json5", []byte(devConfig), 0600)
}

func PrintConfigLocations() {
	slog.Info("fill in the account section of config.local.json5 before running 'apkfetch ingest', the postgres tests in internal/store also need APKFETCH_CONTAINER_TESTS=1 and docker.")
}
