package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpolanco/cardwise/internal/domain"
)

var flagExportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Dump the full ledger as JSON",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&flagExportOut, "out", "o", "", "Output file (default stdout)")
	rootCmd.AddCommand(exportCmd)
}

// exportDocument is the full ledger dump.
type exportDocument struct {
	ExportedAt      time.Time                       `json:"exported_at"`
	Checking        *domain.CheckingAccount         `json:"checking"`
	Savings         *domain.SavingsAccount          `json:"savings"`
	Income          *domain.IncomeSchedule          `json:"income,omitempty"`
	Goal            *domain.SavingsGoal             `json:"goal,omitempty"`
	Cards           []domain.CreditCard             `json:"cards"`
	FixedExpenses   []domain.FixedExpense           `json:"fixed_expenses"`
	VariableExpense []domain.VariableExpense        `json:"variable_expenses"`
	Bonuses         []domain.BonusEvent             `json:"bonuses"`
	Recommendations []domain.PurchaseRecommendation `json:"recommendations"`
}

func runExport(_ *cobra.Command, _ []string) error {
	store, err := openStore()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	doc := exportDocument{ExportedAt: time.Now().UTC()}

	if doc.Checking, err = store.GetChecking(ctx); err != nil {
		return fmt.Errorf("reading checking account: %w", err)
	}
	if doc.Savings, err = store.GetSavings(ctx); err != nil {
		return fmt.Errorf("reading savings account: %w", err)
	}

	// Income and goal are optional singletons.
	var notConfigured *domain.ErrNotConfigured
	if income, err := store.GetIncomeSchedule(ctx); err == nil {
		doc.Income = income
	} else if !errors.As(err, &notConfigured) {
		return fmt.Errorf("reading income schedule: %w", err)
	}
	if goal, err := store.GetSavingsGoal(ctx); err == nil {
		doc.Goal = goal
	} else if !errors.As(err, &notConfigured) {
		return fmt.Errorf("reading savings goal: %w", err)
	}

	if doc.Cards, err = store.ListCards(ctx, true); err != nil {
		return fmt.Errorf("listing cards: %w", err)
	}
	if doc.FixedExpenses, err = store.ListFixedExpenses(ctx, true); err != nil {
		return fmt.Errorf("listing fixed expenses: %w", err)
	}
	if doc.VariableExpense, err = store.ListVariableExpenses(ctx, time.Time{}); err != nil {
		return fmt.Errorf("listing variable expenses: %w", err)
	}
	if doc.Bonuses, err = store.ListBonusEvents(ctx, true); err != nil {
		return fmt.Errorf("listing bonuses: %w", err)
	}
	if doc.Recommendations, err = store.ListRecommendations(ctx, "", 0); err != nil {
		return fmt.Errorf("listing recommendations: %w", err)
	}

	out := os.Stdout
	if flagExportOut != "" {
		f, err := os.Create(flagExportOut)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
