package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// DefaultPath is where the wizard writes the configuration.
const DefaultPath = ".portail.yml"

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Configuration du portail Référents IA")
	fmt.Println()

	cfg := DefaultConfig()

	primary, err := selectProvider("Fournisseur principal (chat)", ProviderGoogle)
	if err != nil {
		return nil, err
	}
	cfg.LLM.Primary = ProviderSpec{Provider: primary, Model: DefaultModel(primary)}

	secondary, err := selectProvider("Fournisseur de secours", ProviderPerplexity)
	if err != nil {
		return nil, err
	}
	cfg.LLM.Secondary = ProviderSpec{Provider: secondary, Model: DefaultModel(secondary)}

	localPrompt := promptui.Prompt{
		Label:   "Modèle local Ollama",
		Default: cfg.LLM.Local.Model,
	}
	localModel, err := localPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("local model: %w", err)
	}
	cfg.LLM.Local.Model = strings.TrimSpace(localModel)

	driverPrompt := promptui.Select{
		Label: "Base de données",
		Items: []string{"sqlite", "postgres"},
	}
	_, driver, err := driverPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("database selection: %w", err)
	}
	cfg.Database.Driver = driver
	if driver == "postgres" {
		dsnPrompt := promptui.Prompt{
			Label: "URL de connexion PostgreSQL",
			Validate: func(s string) error {
				if !strings.HasPrefix(s, "postgres://") && !strings.HasPrefix(s, "postgresql://") {
					return fmt.Errorf("expected a postgres:// URL")
				}
				return nil
			},
		}
		dsn, err := dsnPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("database dsn: %w", err)
		}
		cfg.Database.DSN = dsn
	}

	portPrompt := promptui.Prompt{
		Label:   "Port HTTP",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("invalid port")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	for _, p := range []ProviderType{primary, secondary, cfg.LLM.Search.Provider} {
		envVar := APIKeyEnvVar(p)
		if envVar != "" && os.Getenv(envVar) == "" {
			fmt.Printf("\nNote: définissez %s dans l'environnement (ou le fichier .env).\n", envVar)
		}
	}

	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration enregistrée dans %s\n", path)
	return cfg, nil
}

func selectProvider(label string, def ProviderType) (ProviderType, error) {
	items := []string{
		string(ProviderGoogle),
		string(ProviderPerplexity),
		string(ProviderOpenAI),
		string(ProviderAnthropic),
		string(ProviderOllama),
	}
	cursor := 0
	for i, it := range items {
		if it == string(def) {
			cursor = i
		}
	}
	prompt := promptui.Select{
		Label:     label,
		Items:     items,
		CursorPos: cursor,
	}
	_, choice, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("%s: %w", strings.ToLower(label), err)
	}
	return ProviderType(choice), nil
}
