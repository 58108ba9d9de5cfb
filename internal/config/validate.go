package config

import "fmt"

// Validate checks a Config for semantic correctness.
// Returns a list of validation error messages (empty if valid).
func Validate(cfg *Config) []string {
	var errs []string

	for _, def := range cfg.Defaults {
		if def.Computed == nil {
			continue
		}
		prefix := fmt.Sprintf("default '%s'", def.Name)
		if def.Computed.Command == "" {
			errs = append(errs, fmt.Sprintf("%s: type 'bash' requires 'command'", prefix))
		}
		switch def.Computed.Output {
		case "", "text", "json":
			// valid
		default:
			errs = append(errs, fmt.Sprintf("%s: invalid output '%s' (must be one of: text, json)", prefix, def.Computed.Output))
		}
	}

	for hook, commands := range cfg.Actions {
		for i, command := range commands {
			if command == "" {
				errs = append(errs, fmt.Sprintf("action '%s'#%d: command is empty", hook, i+1))
			}
		}
	}

	for i, entry := range cfg.Files {
		if entry.Path == "" {
			errs = append(errs, fmt.Sprintf("file[%d]: path is empty", i))
		}
	}

	if repo := cfg.Repository; repo != nil {
		if repo.URL == "" {
			errs = append(errs, "repository: 'url' is required")
		}
		if repo.Target == "" {
			errs = append(errs, "repository: 'target' is required")
		}
	}

	return errs
}
