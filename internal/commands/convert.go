package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/klabast/wb-services/festival-calendar/internal/app"
	"github.com/klabast/wb-services/festival-calendar/internal/i18n"
	"github.com/klabast/wb-services/festival-calendar/internal/lunar"
)

var (
	convertLang string
	convertYear int
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert dates between the solar and lunar calendars",
}

var toLunarCmd = &cobra.Command{
	Use:   "to-lunar [YYYY-MM-DD]",
	Short: "Convert a solar date (default today) to its lunar date",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runToLunar,
}

var toSolarCmd = &cobra.Command{
	Use:   "to-solar MONTH DAY",
	Short: "Convert a lunar month and day to its solar date",
	Args:  cobra.ExactArgs(2),
	RunE:  runToSolar,
}

func init() {
	convertCmd.PersistentFlags().StringVar(&convertLang, "lang", "en", "display language (en, zh, ms, ja)")
	toSolarCmd.Flags().IntVar(&convertYear, "year", 0, "lunar year (default current year)")
	convertCmd.AddCommand(toLunarCmd, toSolarCmd)
	rootCmd.AddCommand(convertCmd)
}

// lunarService builds a Service from the configuration, logging to stderr.
func lunarService(cmd *cobra.Command) (*lunar.Service, error) {
	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return lunar.NewService(lunar.Options{
		Loader:    cfg.Loader(),
		EpochYear: cfg.EpochYear,
		Logger:    app.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat),
	}), nil
}

func displayLanguage() (i18n.Language, error) {
	lang, ok := i18n.Parse(convertLang)
	if !ok {
		return "", fmt.Errorf("unsupported language %q", convertLang)
	}
	return lang, nil
}

func runToLunar(cmd *cobra.Command, args []string) error {
	lang, err := displayLanguage()
	if err != nil {
		return err
	}
	svc, err := lunarService(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	solar := svc.Now()
	if len(args) == 1 {
		solar, err = time.Parse(time.DateOnly, args[0])
		if err != nil {
			return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", args[0])
		}
	}

	d := svc.SolarToLunar(ctx, solar)
	cmd.Printf("%s  %s  %s  (%s)\n", solar.Format(time.DateOnly), d, lunar.Format(d, lang), svc.Mode())
	return nil
}

func runToSolar(cmd *cobra.Command, args []string) error {
	lang, err := displayLanguage()
	if err != nil {
		return err
	}
	month, err := strconv.Atoi(args[0])
	if err != nil || month < 1 || month > 12 {
		return fmt.Errorf("invalid month %q: expected 1-12", args[0])
	}
	day, err := strconv.Atoi(args[1])
	if err != nil || day < 1 || day > 30 {
		return fmt.Errorf("invalid day %q: expected 1-30", args[1])
	}
	svc, err := lunarService(cmd)
	if err != nil {
		return err
	}

	d := lunar.LunarDate{Month: month, Day: day}
	solar := svc.LunarToSolar(cmd.Context(), d, convertYear)
	cmd.Printf("%s  %s  %s  (%s)\n", d, lunar.Format(d, lang), solar.Format(time.DateOnly), svc.Mode())
	return nil
}
