package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jpolanco/cardwise/internal/domain"
)

var flagSeedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a ledger seed file into the database",
	Long:  "Reads a JSON document with accounts, income, cards, fixed expenses and bonuses and writes it into the database. Existing cards and expenses are kept; singleton rows (balance, income, goal) are overwritten.",
	RunE:  runSeed,
}

func init() {
	seedCmd.Flags().StringVarP(&flagSeedFile, "file", "f", "seed.json", "Seed file to load")
	rootCmd.AddCommand(seedCmd)
}

// seedDocument is the on-disk seed format.
type seedDocument struct {
	CheckingBalance *float64               `json:"checking_balance,omitempty"`
	SavingsTarget   *float64               `json:"savings_target,omitempty"`
	Income          *domain.IncomeSchedule `json:"income,omitempty"`
	Goal            *domain.SavingsGoal    `json:"goal,omitempty"`
	Cards           []domain.CreditCard    `json:"cards,omitempty"`
	FixedExpenses   []domain.FixedExpense  `json:"fixed_expenses,omitempty"`
	Bonuses         []domain.BonusEvent    `json:"bonuses,omitempty"`
}

func runSeed(_ *cobra.Command, _ []string) error {
	raw, err := os.ReadFile(flagSeedFile)
	if err != nil {
		return fmt.Errorf("reading seed file: %w", err)
	}
	var doc seedDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parsing seed file: %w", err)
	}

	store, err := openStore()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if doc.CheckingBalance != nil {
		if _, err := store.SetCheckingBalance(ctx, *doc.CheckingBalance); err != nil {
			return fmt.Errorf("setting checking balance: %w", err)
		}
		fmt.Printf("  checking balance set to %.2f\n", *doc.CheckingBalance)
	}
	if doc.SavingsTarget != nil {
		if _, err := store.SetSavingsTarget(ctx, *doc.SavingsTarget); err != nil {
			return fmt.Errorf("setting savings target: %w", err)
		}
		fmt.Printf("  savings target set to %.2f\n", *doc.SavingsTarget)
	}
	if doc.Income != nil {
		if err := store.UpsertIncomeSchedule(ctx, doc.Income); err != nil {
			return fmt.Errorf("setting income schedule: %w", err)
		}
		fmt.Printf("  income: %.2f on days %d and %d\n", doc.Income.Amount, doc.Income.FirstPayday, doc.Income.SecondPayday)
	}
	if doc.Goal != nil {
		if err := store.UpsertSavingsGoal(ctx, doc.Goal); err != nil {
			return fmt.Errorf("setting savings goal: %w", err)
		}
		fmt.Printf("  savings goal: %.2f per paycheck\n", doc.Goal.AmountPerPaycheck)
	}

	for i := range doc.Cards {
		card := doc.Cards[i]
		if card.ID == "" {
			card.ID = uuid.NewString()
		}
		if card.CreatedAt.IsZero() {
			card.CreatedAt = time.Now().UTC()
		}
		card.Active = true
		if err := store.CreateCard(ctx, &card); err != nil {
			var duplicate *domain.ErrDuplicate
			if errors.As(err, &duplicate) {
				fmt.Printf("  card %q already exists, skipped\n", card.Name)
				continue
			}
			return fmt.Errorf("creating card %q: %w", card.Name, err)
		}
		fmt.Printf("  card %q created\n", card.Name)
	}

	for i := range doc.FixedExpenses {
		expense := doc.FixedExpenses[i]
		if expense.ID == "" {
			expense.ID = uuid.NewString()
		}
		expense.Active = true
		if err := store.CreateFixedExpense(ctx, &expense); err != nil {
			var duplicate *domain.ErrDuplicate
			if errors.As(err, &duplicate) {
				fmt.Printf("  expense %q already exists, skipped\n", expense.Name)
				continue
			}
			return fmt.Errorf("creating expense %q: %w", expense.Name, err)
		}
		fmt.Printf("  expense %q created\n", expense.Name)
	}

	for i := range doc.Bonuses {
		bonus := doc.Bonuses[i]
		if bonus.ID == "" {
			bonus.ID = uuid.NewString()
		}
		if err := store.CreateBonusEvent(ctx, &bonus); err != nil {
			return fmt.Errorf("creating bonus: %w", err)
		}
		fmt.Printf("  bonus of %.2f expected on %s created\n", bonus.Amount, bonus.ExpectedOn.Format("2006-01-02"))
	}

	fmt.Println("seed complete")
	return nil
}
