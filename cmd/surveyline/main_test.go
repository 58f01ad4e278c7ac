package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"surveyline/pkg/db"
	"surveyline/pkg/store"
)

const testSurvey = `1 0.0 0.0 100.0 DR
2 0.0 5.0 100.0 DR
3 0.0 10.0 102.0 DR
4 30.0 10.0 102.0 ROW
5 35.0 10.0 103.0 ROW
6 40.0 10.0 103.0 ROW
`

func writeTestConfig(t *testing.T, dir string, extra ...string) string {
	t.Helper()
	cfg := `
server:
    address: localhost:0
log:
    server:
        path: "` + filepath.ToSlash(filepath.Join(dir, "logs", "server.log")) + `"
        level: "debug"
    requests:
        path: "` + filepath.ToSlash(filepath.Join(dir, "logs", "requests.log")) + `"
        level: "info"
db:
    path: "` + filepath.ToSlash(filepath.Join(dir, "data", "test.db")) + `"
` + strings.Join(extra, "\n")
	path := filepath.Join(dir, "surveyline.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    options
		wantErr error
	}{
		{
			name: "Defaults",
			args: nil,
			want: options{configPath: defaultConfigPath, format: "dxf", mode: "profile"},
		},
		{
			name: "Short",
			args: []string{"-i", "road.txt", "-f", "shp", "-m", "connect", "-o", "out/road"},
			want: options{configPath: defaultConfigPath, input: "road.txt", format: "shp", mode: "connect", output: "out/road"},
		},
		{
			name: "Serve",
			args: []string{"--serve", "--config", "x.yaml"},
			want: options{configPath: "x.yaml", format: "dxf", mode: "profile", serve: true},
		},
		{
			name:    "Help",
			args:    []string{"--help"},
			wantErr: pflag.ErrHelp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFlags(tt.args, io.Discard)
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Fatalf("parseFlags() err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseFlags() failed: %v", err)
			}
			if *got != tt.want {
				t.Errorf("parseFlags() = %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestRun_Convert(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "road.txt")
	if err := os.WriteFile(input, []byte(testSurvey), 0o644); err != nil {
		t.Fatalf("Failed to write input: %v", err)
	}

	var stdout bytes.Buffer
	o := &options{configPath: writeTestConfig(t, dir), input: input, format: "dxf", mode: "profile", store: true}
	if err := run(context.Background(), o, &stdout); err != nil {
		t.Fatalf("run() failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "road.dxf"))
	if err != nil {
		t.Fatalf("expected road.dxf: %v", err)
	}
	if !strings.Contains(string(data), "PROFILE") {
		t.Error("DXF output missing profile layer")
	}
	if !strings.Contains(stdout.String(), "6 points, 2 runs, 1 breaks") {
		t.Errorf("unexpected summary: %q", stdout.String())
	}

	d, err := db.Init(filepath.Join(dir, "data", "test.db"))
	if err != nil {
		t.Fatalf("Failed to open DB: %v", err)
	}
	st := store.NewSQLiteStore(d)
	defer st.Close()
	list, err := st.ListSurveys(context.Background())
	if err != nil {
		t.Fatalf("ListSurveys failed: %v", err)
	}
	if len(list) != 1 || list[0].Name != "road" {
		t.Errorf("expected stored survey 'road', got %+v", list)
	}
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTestConfig(t, dir)

	tests := []struct {
		name string
		opts options
		want string
	}{
		{"NoInput", options{format: "dxf", mode: "profile"}, "no input file"},
		{"BadFormat", options{input: "x.txt", format: "dwg", mode: "profile"}, "unknown export format"},
		{"BadMode", options{input: "x.txt", format: "dxf", mode: "3d"}, "unknown drawing mode"},
		{"MissingFile", options{input: filepath.Join(dir, "missing.txt"), format: "dxf", mode: "profile"}, "failed to open survey file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.configPath = cfgPath
			err := run(context.Background(), &tt.opts, io.Discard)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("run() err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestRun_Serve(t *testing.T) {
	dir := t.TempDir()
	o := &options{configPath: writeTestConfig(t, dir), serve: true}

	// Cancel quickly to verify the startup and shutdown sequence.
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if err := run(ctx, o, io.Discard); err != nil {
		t.Fatalf("run() failed: %v", err)
	}
}

func TestRun_ServeInbox(t *testing.T) {
	dir := t.TempDir()
	inbox := filepath.Join(dir, "inbox")
	if err := os.MkdirAll(inbox, 0o755); err != nil {
		t.Fatal(err)
	}
	o := &options{configPath: writeTestConfig(t, dir,
		"inbox:",
		`    paths: ["`+filepath.ToSlash(inbox)+`"]`,
		"    interval: 20ms",
	), serve: true}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- run(ctx, o, io.Discard) }()

	// Give the watcher time to start, then drop a file with a future mtime.
	time.Sleep(100 * time.Millisecond)
	f := filepath.Join(inbox, "road.txt")
	if err := os.WriteFile(f, []byte(testSurvey), 0o644); err != nil {
		t.Fatal(err)
	}
	ts := time.Now().Add(time.Second)
	if err := os.Chtimes(f, ts, ts); err != nil {
		t.Fatal(err)
	}

	d, err := db.Init(filepath.Join(dir, "data", "test.db"))
	if err != nil {
		t.Fatalf("Failed to open DB: %v", err)
	}
	st := store.NewSQLiteStore(d)
	defer st.Close()

	deadline := time.Now().Add(5 * time.Second)
	for {
		list, err := st.ListSurveys(context.Background())
		if err == nil && len(list) == 1 && list[0].Name == "road" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("inbox file was not ingested (list=%v, err=%v)", list, err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	if err := <-errc; err != nil {
		t.Fatalf("run() failed: %v", err)
	}
}
