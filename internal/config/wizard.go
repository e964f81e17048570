package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .collabview.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to collabview! Let's connect the viewer.")
	fmt.Println()

	cfg := DefaultConfig()

	urlPrompt := promptui.Prompt{
		Label:    "CollabView server URL",
		Default:  "http://localhost:8080",
		Validate: checkHTTPURL,
	}
	cvURL, err := urlPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("collabview url: %w", err)
	}
	cfg.Collabview.URL = cvURL

	keyPrompt := promptui.Prompt{
		Label: "Disposable key",
		Mask:  '*',
	}
	key, err := keyPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("disposable key: %w", err)
	}
	cfg.Collabview.DisposableKey = key

	portPrompt := promptui.Prompt{
		Label:   "Server port",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("port must be between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	levelPrompt := promptui.Select{
		Label: "Log level",
		Items: []string{"info", "debug", "warn", "error"},
	}
	_, level, err := levelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg.Log.Level = level

	extPrompt := promptui.Prompt{
		Label:   "Viewable extensions (comma-separated)",
		Default: strings.Join(DefaultExtensions, ","),
	}
	extStr, err := extPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("extensions: %w", err)
	}
	if exts := splitAndTrim(extStr); len(exts) > 0 {
		cfg.Eligibility.Extensions = exts
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Save(DefaultPath); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", DefaultPath)
	return cfg, nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
