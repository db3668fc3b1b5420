package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/sentinelhq/sentinel/internal/config"
	"github.com/sentinelhq/sentinel/internal/domain"
	"github.com/sentinelhq/sentinel/internal/logger"
	"github.com/sentinelhq/sentinel/internal/repository/credential"
	"github.com/sentinelhq/sentinel/internal/transport/rest"
	"github.com/sentinelhq/sentinel/internal/usecase/session"
	"github.com/sentinelhq/sentinel/internal/version"
	"github.com/sentinelhq/sentinel/internal/view"
)

var baseURL = flag.String("base-url", "", "Backend API URL (overrides config)")

func main() {
	flag.Parse()

	env := config.GetEnv()
	cfg, err := config.Load(env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading config: %v\n", err)
		os.Exit(1)
	}
	if *baseURL != "" {
		cfg.API.BaseURL = *baseURL
	}

	log, err := logger.New(env, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: creating logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Debug("starting sentinel",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.String("base_url", cfg.API.BaseURL),
	)

	credPath := cfg.Credentials.Path
	if credPath == "" {
		credPath, err = credential.DefaultPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: resolving credential path: %v\n", err)
			os.Exit(1)
		}
	}
	store := credential.NewStore(credPath)

	client, err := rest.NewClient(
		rest.Config{
			BaseURL: cfg.API.BaseURL,
			Timeout: time.Duration(cfg.API.TimeoutSec) * time.Second,
		},
		store,
		rest.WithLogger(log),
		rest.WithMetrics(prometheus.DefaultRegisterer),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	sessions := session.NewController(store, client, log)
	sessions.Resolve()

	a := &app{client: client, sessions: sessions, logger: log}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	ctx := logger.WithContext(context.Background(), log)
	switch args[0] {
	case "login":
		a.login(ctx)
	case "logout":
		a.logout()
	case "signup":
		a.signup(ctx)
	case "forgot-password":
		a.forgotPassword(ctx, args[1:])
	case "reset-password":
		a.resetPassword(ctx, args[1:])
	case "projects":
		a.projects(ctx, args[1:])
	case "project":
		a.project(ctx, args[1:])
	case "budget":
		a.budget(ctx, args[1:])
	case "account":
		a.account(ctx, args[1:])
	case "version":
		fmt.Printf("sentinel %s (%s, built %s)\n", version.Version, version.Commit, version.Date)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n", args[0])
		os.Exit(1)
	}
}

type app struct {
	client   *rest.Client
	sessions *session.Controller
	logger   *zap.Logger
}

// follow interprets a view outcome. A redirect to the login route means
// the session is gone, so print the hint and stop.
func follow(out view.Outcome) {
	route, redirected := out.Redirect()
	if !redirected {
		return
	}
	if route == view.RouteLogin {
		fmt.Fprintln(os.Stderr, "Error: not signed in (run `sentinel login`)")
	} else {
		fmt.Fprintf(os.Stderr, "Error: unavailable, try `sentinel projects list` (%s)\n", route)
	}
	os.Exit(1)
}

// --- Auth commands ---

func (a *app) login(ctx context.Context) {
	email := promptLine("Email: ")
	password := promptPassword("Password: ")

	auth := view.NewAuth(a.client, a.sessions, a.logger)
	out, err := auth.SignIn(ctx, email, password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	follow(out)
	fmt.Println("Signed in.")
}

func (a *app) logout() {
	a.sessions.Logout()
	fmt.Println("Signed out.")
}

func (a *app) signup(ctx context.Context) {
	email := promptLine("Email: ")
	password := promptPassword("Password: ")

	auth := view.NewAuth(a.client, a.sessions, a.logger)
	out, err := auth.SignUp(ctx, email, password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if route, ok := out.Redirect(); ok && route == view.RouteDashboard {
		fmt.Println("Account created, signed in.")
		return
	}
	fmt.Println("Account created. Run `sentinel login` to sign in.")
}

func (a *app) forgotPassword(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Error: forgot-password requires an email address")
		os.Exit(1)
	}
	auth := view.NewAuth(a.client, a.sessions, a.logger)
	fmt.Println(auth.RequestReset(ctx, args[0]))
}

func (a *app) resetPassword(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Error: reset-password requires a reset token")
		os.Exit(1)
	}
	password := promptPassword("New password: ")
	confirm := promptPassword("Confirm password: ")

	auth := view.NewAuth(a.client, a.sessions, a.logger)
	msg, err := auth.CompleteReset(ctx, args[0], password, confirm)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(msg)
}

// --- Project commands ---

func (a *app) projects(ctx context.Context, args []string) {
	dash := view.NewDashboard(a.client, a.sessions, a.logger)
	follow(dash.Load(ctx))

	if len(args) == 0 {
		args = []string{"list"}
	}
	switch args[0] {
	case "list":
		printProjectsTable(dash)
	case "create":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Error: projects create requires a name")
			os.Exit(1)
		}
		p, err := dash.Create(ctx, strings.Join(args[1:], " "))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created project %d (%s)\nSentinel key: %s\n", p.ID, p.Name, p.SentinelKey)
	case "delete":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Error: projects delete requires a project id")
			os.Exit(1)
		}
		id, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid project id %q\n", args[1])
			os.Exit(1)
		}
		a.deleteProject(ctx, dash, id)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown projects subcommand %q\n", args[0])
		os.Exit(1)
	}
}

// deleteProject runs the staged delete: show what is about to go, ask,
// then confirm or cancel.
func (a *app) deleteProject(ctx context.Context, dash *view.Dashboard, id int) {
	if !dash.StageDeletion(id) {
		fmt.Fprintf(os.Stderr, "Error: no project with id %d\n", id)
		os.Exit(1)
	}
	staged, _ := dash.PendingDeletion()
	if !confirm(fmt.Sprintf("Delete project %q and all its usage data?", staged.Name)) {
		dash.CancelDeletion()
		fmt.Println("Cancelled.")
		return
	}
	if err := dash.ConfirmDeletion(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Deleted project %d.\n", id)
}

func (a *app) project(ctx context.Context, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Error: project requires a project id")
		os.Exit(1)
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid project id %q\n", args[0])
		os.Exit(1)
	}

	detail := view.NewProjectDetail(id, a.client, a.sessions, a.logger)
	follow(detail.Load(ctx))
	printProjectDetail(detail)
}

func (a *app) budget(ctx context.Context, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Error: budget requires a project id and an amount")
		os.Exit(1)
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid project id %q\n", args[0])
		os.Exit(1)
	}

	detail := view.NewProjectDetail(id, a.client, a.sessions, a.logger)
	follow(detail.Load(ctx))

	if err := detail.UpdateBudget(ctx, args[1]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	stats := detail.Stats()
	fmt.Printf("Monthly budget for %q is now $%d.\n", stats.ProjectName, stats.MonthlyBudget)
}

func (a *app) account(ctx context.Context, args []string) {
	if len(args) < 1 || args[0] != "delete" {
		fmt.Fprintln(os.Stderr, "Error: account command requires subcommand (delete)")
		os.Exit(1)
	}

	settings := view.NewSettings(a.client, a.sessions, a.logger)
	follow(settings.Load(ctx))

	if !confirm("Delete your account and every project in it? This cannot be undone.") {
		fmt.Println("Cancelled.")
		return
	}
	out, err := settings.DeleteAccount(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if _, ok := out.Redirect(); ok {
		fmt.Println("Account deleted.")
	}
}

// --- Rendering ---

func printProjectsTable(dash *view.Dashboard) {
	projects := dash.Projects()
	if len(projects) == 0 {
		fmt.Println("No projects yet. Create one with `sentinel projects create <name>`.")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSENTINEL KEY")
	for _, p := range projects {
		fmt.Fprintf(w, "%d\t%s\t%s\n", p.ID, p.Name, p.SentinelKey)
	}
	w.Flush()
}

func printProjectDetail(detail *view.ProjectDetail) {
	stats := detail.Stats()
	analytics := detail.Analytics()

	fmt.Printf("%s (project %d)\n\n", stats.ProjectName, detail.ID())

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Monthly budget\t$%d\n", stats.MonthlyBudget)
	fmt.Fprintf(w, "Current usage\t$%.2f (%.0f%%)\n", stats.CurrentUsage, stats.BudgetUsedFraction()*100)
	fmt.Fprintf(w, "Total requests\t%d\n", analytics.TotalRequests)
	fmt.Fprintf(w, "Avg cost/request\t$%.4f\n", analytics.AverageCostPerRequest)
	w.Flush()

	if len(analytics.UsageLast30Days) > 0 {
		fmt.Println("\nUsage, last 30 days:")
		printUsageChart(analytics.UsageLast30Days)
	}

	if models := detail.Models(); len(models) > 0 {
		fmt.Println("\nBy model:")
		w = tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "MODEL\tREQUESTS\tCOST")
		for _, m := range models {
			fmt.Fprintf(w, "%s\t%d\t$%.2f\n", m.Model, m.Requests, m.Cost)
		}
		w.Flush()
	}
}

const chartWidth = 40

func printUsageChart(series []domain.DailyUsage) {
	var max float64
	for _, day := range series {
		if day.Cost > max {
			max = day.Cost
		}
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, day := range series {
		bar := 0
		if max > 0 {
			bar = int(day.Cost / max * chartWidth)
		}
		fmt.Fprintf(w, "%s\t$%.2f\t%s\n", day.Date.Format("Jan 02"), day.Cost, strings.Repeat("#", bar))
	}
	w.Flush()
}

// --- Prompts ---

func promptLine(prompt string) string {
	fmt.Print(prompt)
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		fmt.Fprintln(os.Stderr, "Error: no input")
		os.Exit(1)
	}
	return strings.TrimSpace(scanner.Text())
}

// promptPassword reads without echo when stdin is a terminal, and falls
// back to a plain line read when it is piped.
func promptPassword(prompt string) string {
	fmt.Print(prompt)
	if term.IsTerminal(int(os.Stdin.Fd())) {
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: reading password: %v\n", err)
			os.Exit(1)
		}
		return strings.TrimSpace(string(raw))
	}
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		fmt.Fprintln(os.Stderr, "Error: no input")
		os.Exit(1)
	}
	return strings.TrimSpace(scanner.Text())
}

func confirm(question string) bool {
	answer := promptLine(question + " [y/N] ")
	return strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes")
}

func printUsage() {
	fmt.Println(`sentinel - usage metering dashboard

Usage:
  sentinel login                      Sign in and store the access token
  sentinel logout                     Sign out and clear the stored token
  sentinel signup                     Create an account and sign in
  sentinel forgot-password <email>    Request a password reset link
  sentinel reset-password <token>     Set a new password with a reset token
  sentinel projects list              List projects
  sentinel projects create <name>     Create a project
  sentinel projects delete <id>       Delete a project (asks first)
  sentinel project <id>               Show budget, usage and analytics
  sentinel budget <id> <amount>       Set a project's monthly budget
  sentinel account delete             Delete the account (asks first)
  sentinel version                    Print version information

Flags:
  --base-url <url>                    Backend API URL (overrides config)

Environment:
  ENV                                 Config profile (default "local")`)
}
