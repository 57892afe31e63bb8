package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"churchadmin/internal/client"
	"churchadmin/internal/config"
	"churchadmin/internal/models"
)

func main() {
	// Define subcommands
	summaryCmd := flag.NewFlagSet("summary", flag.ExitOnError)
	exportCmd := flag.NewFlagSet("export-reports", flag.ExitOnError)
	financeCmd := flag.NewFlagSet("finance", flag.ExitOnError)

	// Summary flags
	summaryQuery := summaryCmd.String("q", "", "Only people whose name contains this text")
	summarySort := summaryCmd.String("sort", "name", "Order by name, progress or lesson")

	// Export flags
	exportOutput := exportCmd.String("output", "", "Output file path (default: stdout)")
	exportPeriod := exportCmd.String("period", "", "thisWeek, lastWeek, thisMonth, lastMonth, thisYear or customRange")
	exportStart := exportCmd.String("start", "", "Start date (YYYY-MM-DD)")
	exportEnd := exportCmd.String("end", "", "End date (YYYY-MM-DD)")
	exportTeacher := exportCmd.Int64("teacher", 0, "Only reports by this teacher (person ID)")
	exportStudent := exportCmd.Int64("student", 0, "Only reports for this student (person ID)")
	exportLesson := exportCmd.Int64("lesson", 0, "Only reports for this lesson ID")

	// Finance flags
	financePeriod := financeCmd.String("period", "", "Stats period (default: thisMonth)")
	financeStart := financeCmd.String("start", "", "Start date for customRange (YYYY-MM-DD)")
	financeEnd := financeCmd.String("end", "", "End date for customRange (YYYY-MM-DD)")
	financePledges := financeCmd.Bool("pledges", false, "Also list active pledges with their balances")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()
	baseURL := getEnv("REPORTCTL_URL", cfg.AppBaseURL)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	api := client.New(baseURL, nil)
	switch os.Args[1] {
	case "summary":
		summaryCmd.Parse(os.Args[2:])
		login(ctx, api)
		handleSummary(ctx, api, *summaryQuery, *summarySort)

	case "export-reports":
		exportCmd.Parse(os.Args[2:])
		login(ctx, api)
		filter := client.ReportFilter{
			TeacherID: optionalID(*exportTeacher),
			StudentID: optionalID(*exportStudent),
			LessonID:  optionalID(*exportLesson),
			Period:    *exportPeriod,
			Start:     *exportStart,
			End:       *exportEnd,
		}
		handleExport(ctx, api, filter, *exportOutput)

	case "finance":
		financeCmd.Parse(os.Args[2:])
		login(ctx, api)
		handleFinance(ctx, api, *financePeriod, *financeStart, *financeEnd, *financePledges)

	default:
		printUsage()
		os.Exit(1)
	}
}

func login(ctx context.Context, api *client.Client) {
	email := os.Getenv("REPORTCTL_EMAIL")
	password := os.Getenv("REPORTCTL_PASSWORD")
	if email == "" || password == "" {
		log.Fatal("REPORTCTL_EMAIL and REPORTCTL_PASSWORD must be set")
	}
	if _, err := api.Login(ctx, email, password); err != nil {
		log.Fatalf("Login failed: %v", describe(err))
	}
}

func handleSummary(ctx context.Context, api *client.Client, query, sort string) {
	summaries, err := api.Progress.Summaries(ctx, query, sort)
	if err != nil {
		log.Fatalf("Failed to load summaries: %v", describe(err))
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PERSON\tCOMPLETED\tPERCENT\tCURRENT\tNEXT")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%d/%d\t%d%%\t%s\t%s\n",
			s.Person.Name, s.CompletedCount, s.TotalLessons, s.ProgressPercentage, lessonTitle(s.CurrentLesson), lessonTitle(s.NextLesson))
	}
	tw.Flush()
}

func lessonTitle(l *models.Lesson) string {
	if l == nil {
		return "-"
	}
	return l.Title
}

func handleExport(ctx context.Context, api *client.Client, filter client.ReportFilter, outputPath string) {
	var out io.Writer = os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			log.Fatalf("Failed to create output file: %v", err)
		}
		defer f.Close()
		out = f
	}

	if err := api.SessionReports.ExportCSV(ctx, filter, out); err != nil {
		log.Fatalf("Export failed: %v", describe(err))
	}
	if outputPath != "" {
		log.Printf("Session reports written to %s", outputPath)
	}
}

func handleFinance(ctx context.Context, api *client.Client, period, start, end string, withPledges bool) {
	stats, err := api.Finance.Stats(ctx, period, start, end)
	if err != nil {
		log.Fatalf("Failed to load finance stats: %v", describe(err))
	}

	fmt.Printf("%s (%s to %s)\n\n", stats.Label, stats.Range.Start, stats.Range.End)
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Donations\t%s\t%d gifts\tavg %s\n", money(stats.Donations.Total), stats.Donations.Count, money(stats.Donations.Average))
	fmt.Fprintf(tw, "Offerings\t%s\t%d services\tavg %s\n", money(stats.Offerings.Total), stats.Offerings.Count, money(stats.Offerings.Average))
	fmt.Fprintf(tw, "Pledged (all time)\t%s\n", money(stats.Pledges.TotalPledged))
	fmt.Fprintf(tw, "Received (all time)\t%s\n", money(stats.Pledges.ReceivedAllTime))
	fmt.Fprintf(tw, "Received (%s)\t%s\n", stats.PledgeViewLabel, money(stats.Pledges.ReceivedInPeriod))
	fmt.Fprintf(tw, "Outstanding (%s)\t%s\n", stats.PledgeViewLabel, money(stats.Pledges.OutstandingInPeriod))
	tw.Flush()

	if !withPledges {
		return
	}

	pledges, err := api.Finance.Pledges(ctx, models.PledgeActive)
	if err != nil {
		log.Fatalf("Failed to load pledges: %v", describe(err))
	}
	fmt.Println()
	tw = tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PLEDGE\tPLEDGER\tPLEDGED\tRECEIVED\tBALANCE")
	for _, p := range pledges {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.Title, p.PledgerName, money(p.AmountPledged), money(p.AmountReceived), money(p.Balance))
	}
	tw.Flush()
}

// describe unwraps API errors to the message the server meant for people
func describe(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

func optionalID(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func printUsage() {
	fmt.Println("Church Admin Reporting Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  reportctl summary [options]          Lesson progress per person")
	fmt.Println("  reportctl export-reports [options]   Download session reports as CSV")
	fmt.Println("  reportctl finance [options]          Finance dashboard figures")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  REPORTCTL_URL        API base URL (default: APP_BASE_URL)")
	fmt.Println("  REPORTCTL_EMAIL      Staff email used to sign in")
	fmt.Println("  REPORTCTL_PASSWORD   Staff password used to sign in")
}
