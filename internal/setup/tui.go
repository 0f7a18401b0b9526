// Package setup provides the terminal configuration wizard.
package setup

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/folio/config"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)
)

// RunTUI launches the terminal configuration wizard and writes folio.yaml.
func RunTUI() error {
	var (
		rpcURL        string
		walletAddress string
		chainIDStr    string
		listenAddr    string
		confirmWrite  bool
	)

	// defaults
	chainIDStr = "137"
	listenAddr = ":8080"

	fmt.Print("\033[H\033[2J") // Clear screen
	fmt.Println(headerStyle.Render("FOLIO CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Point folio at your wallet and chain.\n"))

	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Chain JSON-RPC endpoint").
				Placeholder("https://polygon-rpc.com").
				Value(&rpcURL).
				Validate(notEmpty("rpc url")),
			huh.NewInput().
				Title("Wallet address to rebalance").
				Placeholder("0x...").
				Value(&walletAddress).
				Validate(notEmpty("wallet address")),
			huh.NewInput().
				Title("Chain id").
				Value(&chainIDStr).
				Validate(isInt),
			huh.NewInput().
				Title("Dashboard listen address").
				Value(&listenAddr),
		),
	).Run()
	if err != nil {
		return err
	}

	targets := config.DefaultTargets()
	for _, asset := range config.DefaultAssets() {
		pctStr := strconv.Itoa(targets[asset.Symbol])
		err := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title(fmt.Sprintf("%s target percent", asset.Symbol)).
					Value(&pctStr).
					Validate(isInt),
			),
		).Run()
		if err != nil {
			return err
		}
		pct, _ := strconv.Atoi(pctStr)
		targets[asset.Symbol] = pct
	}

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Write folio.yaml?").
				Value(&confirmWrite),
		),
	).Run()
	if err != nil {
		return err
	}
	if !confirmWrite {
		return fmt.Errorf("configuration aborted")
	}

	chainID, _ := strconv.Atoi(chainIDStr)
	out := map[string]any{
		"chain_id":       chainID,
		"rpc_url":        rpcURL,
		"wallet_address": walletAddress,
		"listen_addr":    listenAddr,
		"targets":        targets,
	}
	data, err := yaml.Marshal(out)
	if err != nil {
		return err
	}
	if err := os.WriteFile("folio.yaml", data, 0o644); err != nil {
		return err
	}

	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("\nWrote folio.yaml. Start with: folio --config folio.yaml"))
	return nil
}

func notEmpty(name string) func(string) error {
	return func(s string) error {
		if s == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

func isInt(s string) error {
	if _, err := strconv.Atoi(s); err != nil {
		return fmt.Errorf("must be an integer")
	}
	return nil
}
