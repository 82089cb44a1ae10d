// Package setup registers the phleb MCP server with desktop MCP clients.
package setup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/phleb-loss-tracker/internal/config"
)

// ServerName is the key used under mcpServers.
const ServerName = "phleb-loss-tracker"

// ClientConfigEnv overrides the client config location.
const ClientConfigEnv = "PHLEB_MCP_CLIENT_CONFIG"

// ClientConfig is the desktop client configuration file. Keys other than
// mcpServers are preserved on save.
type ClientConfig struct {
	MCPServers map[string]ServerEntry `json:"mcpServers"`
	extra      map[string]json.RawMessage
}

// ServerEntry launches one MCP server.
type ServerEntry struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// Options controls Register.
type Options struct {
	BinaryPath   string
	DataDir      string
	SettingsFile string
}

// Status describes the current registration.
type Status struct {
	ConfigPath string
	Registered bool
	Entry      ServerEntry
	DataDir    string
	Issues     []string
}

// ClientConfigPath returns the client config file for this platform.
func ClientConfigPath() (string, error) {
	if p := os.Getenv(ClientConfigEnv); p != "" {
		return p, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	var dir string
	switch runtime.GOOS {
	case "darwin":
		dir = filepath.Join(home, "Library", "Application Support", "Claude")
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			dir = filepath.Join(xdg, "Claude")
		} else {
			dir = filepath.Join(home, ".config", "Claude")
		}
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", errors.New("APPDATA environment variable not set")
		}
		dir = filepath.Join(appData, "Claude")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}
	return filepath.Join(dir, "claude_desktop_config.json"), nil
}

// LoadClientConfig reads the client config. A missing file is an empty config.
func LoadClientConfig(path string) (*ClientConfig, error) {
	cfg := &ClientConfig{MCPServers: map[string]ServerEntry{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read client config: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse client config: %w", err)
	}
	if servers, ok := raw["mcpServers"]; ok {
		if err := json.Unmarshal(servers, &cfg.MCPServers); err != nil {
			return nil, fmt.Errorf("failed to parse mcpServers: %w", err)
		}
		if cfg.MCPServers == nil {
			cfg.MCPServers = map[string]ServerEntry{}
		}
		delete(raw, "mcpServers")
	}
	cfg.extra = raw
	return cfg, nil
}

// SaveClientConfig writes the client config, creating its directory.
func SaveClientConfig(path string, cfg *ClientConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	out := make(map[string]any, len(cfg.extra)+1)
	for k, v := range cfg.extra {
		out[k] = v
	}
	out["mcpServers"] = cfg.MCPServers

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal client config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write client config: %w", err)
	}
	return nil
}

// Entry builds the mcpServers entry that runs "phleb mcp".
func Entry(opts Options) (ServerEntry, error) {
	binary := opts.BinaryPath
	if binary == "" {
		exe, err := os.Executable()
		if err != nil {
			return ServerEntry{}, fmt.Errorf("could not locate phleb binary: %w", err)
		}
		binary = exe
	}
	if abs, err := filepath.Abs(binary); err == nil {
		binary = abs
	}

	entry := ServerEntry{Command: binary, Args: []string{"mcp"}}
	if opts.SettingsFile != "" {
		entry.Args = append(entry.Args, "--settings", opts.SettingsFile)
	}
	if opts.DataDir != "" {
		entry.Env = map[string]string{config.DataDirEnv: opts.DataDir}
	}
	return entry, nil
}

// Register adds or replaces the phleb entry in the client config at path.
func Register(path string, opts Options) (ServerEntry, error) {
	entry, err := Entry(opts)
	if err != nil {
		return ServerEntry{}, err
	}

	cfg, err := LoadClientConfig(path)
	if err != nil {
		return ServerEntry{}, err
	}
	cfg.MCPServers[ServerName] = entry

	if err := SaveClientConfig(path, cfg); err != nil {
		return ServerEntry{}, err
	}
	return entry, nil
}

// Unregister removes the phleb entry. It reports whether one was present.
func Unregister(path string) (bool, error) {
	cfg, err := LoadClientConfig(path)
	if err != nil {
		return false, err
	}
	if _, ok := cfg.MCPServers[ServerName]; !ok {
		return false, nil
	}
	delete(cfg.MCPServers, ServerName)
	return true, SaveClientConfig(path, cfg)
}

// CheckStatus inspects the registration at path.
func CheckStatus(path string) (*Status, error) {
	cfg, err := LoadClientConfig(path)
	if err != nil {
		return nil, err
	}

	status := &Status{ConfigPath: path, DataDir: config.DefaultDataDir()}
	entry, ok := cfg.MCPServers[ServerName]
	if !ok {
		status.Issues = append(status.Issues, "phleb is not registered with the MCP client")
		return status, nil
	}
	status.Registered = true
	status.Entry = entry

	if dir := entry.Env[config.DataDirEnv]; dir != "" {
		status.DataDir = dir
	}
	if info, err := os.Stat(entry.Command); err != nil {
		status.Issues = append(status.Issues, fmt.Sprintf("server binary not found: %s", entry.Command))
	} else if info.Mode()&0o111 == 0 && runtime.GOOS != "windows" {
		status.Issues = append(status.Issues, fmt.Sprintf("server binary is not executable: %s", entry.Command))
	}
	if _, err := os.Stat(status.DataDir); os.IsNotExist(err) {
		status.Issues = append(status.Issues, fmt.Sprintf("data directory will be created on first run: %s", status.DataDir))
	}
	sort.Strings(status.Issues)
	return status, nil
}
