// routerctl is the administrative CLI for the router: a direct route
// check, metrics reports, retention cleanup, work-queue manipulation, and
// environment validation.
//
// Usage:
//
//	routerctl route "<request>"
//	routerctl metrics report (daily|weekly|compliance) [--since YYYY-MM-DD] [--until YYYY-MM-DD]
//	routerctl metrics cleanup --retention-days N
//	routerctl work (enqueue|start|complete|fail|status) ...
//	routerctl validate
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/yannickloth/claude-router-system-sub002/pkg/eventlog"
	"github.com/yannickloth/claude-router-system-sub002/pkg/metrics"
	"github.com/yannickloth/claude-router-system-sub002/pkg/project"
	"github.com/yannickloth/claude-router-system-sub002/pkg/registry"
	"github.com/yannickloth/claude-router-system-sub002/pkg/router"
	"github.com/yannickloth/claude-router-system-sub002/pkg/workqueue"
)

const (
	exitOK                   = 0
	exitInvalidInput         = 2
	exitStateTransitionError = 3
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(exitInvalidInput)
	}

	switch os.Args[1] {
	case "route":
		os.Exit(cmdRoute(os.Args[2:]))
	case "metrics":
		os.Exit(cmdMetrics(os.Args[2:]))
	case "work":
		os.Exit(cmdWork(os.Args[2:]))
	case "validate":
		os.Exit(cmdValidate(os.Args[2:]))
	default:
		usage()
		os.Exit(exitInvalidInput)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: routerctl <route|metrics|work|validate> ...")
}

func currentProject() (project.Project, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return project.Project{}, "", err
	}
	proj := project.Detect(cwd)
	home, _ := os.UserHomeDir()
	return proj, home, nil
}

func cmdRoute(args []string) int {
	fs := flag.NewFlagSet("route", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return exitInvalidInput
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, `usage: routerctl route "<request>"`)
		return exitInvalidInput
	}
	request := fs.Arg(0)

	proj, home, err := currentProject()
	if err != nil {
		fmt.Fprintf(os.Stderr, "routerctl: %v\n", err)
		return exitInvalidInput
	}
	cfg := project.LoadConfig(proj.Root, home)

	agentsDir := ""
	if proj.Root != project.GlobalSentinel {
		agentsDir = proj.Root + "/.claude/agents"
	}
	userAgentsDir := ""
	if home != "" {
		userAgentsDir = home + "/.claude/agents"
	}
	reg, err := registry.New(nil, registry.NewLoader(agentsDir, userAgentsDir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "routerctl: %v\n", err)
		return exitInvalidInput
	}
	matcher := router.KeywordMatcher{Agents: reg.List()}

	decision, err := router.Route(request, matcher, router.Config{
		KeywordThreshold:  cfg.ConfidenceThresholdKeyword,
		SemanticThreshold: cfg.ConfidenceThresholdSemantic,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "routerctl: %v\n", err)
		return exitInvalidInput
	}

	out, _ := json.MarshalIndent(decision, "", "  ")
	fmt.Println(string(out))
	return exitOK
}

func cmdMetrics(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: routerctl metrics <report|cleanup> ...")
		return exitInvalidInput
	}

	switch args[0] {
	case "report":
		return cmdMetricsReport(args[1:])
	case "cleanup":
		return cmdMetricsCleanup(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "routerctl: unknown metrics subcommand %q\n", args[0])
		return exitInvalidInput
	}
}

func metricsLog() (*eventlog.Log, error) {
	proj, _, err := currentProject()
	if err != nil {
		return nil, err
	}
	dataRoot, err := project.DataRoot()
	if err != nil {
		return nil, err
	}
	metricsDir, err := project.DataDir(dataRoot, proj.ID, project.KindMetrics)
	if err != nil {
		return nil, err
	}
	return eventlog.New(metricsDir), nil
}

func cmdMetricsReport(args []string) int {
	fs := flag.NewFlagSet("metrics report", flag.ContinueOnError)
	since := fs.String("since", "", "start date YYYY-MM-DD")
	until := fs.String("until", "", "end date YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return exitInvalidInput
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: routerctl metrics report (daily|weekly|compliance) [--since …] [--until …]")
		return exitInvalidInput
	}
	kind := fs.Arg(0)
	// --since/--until may also follow the report kind, as in the usage line.
	if err := fs.Parse(fs.Args()[1:]); err != nil {
		return exitInvalidInput
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "usage: routerctl metrics report (daily|weekly|compliance) [--since …] [--until …]")
		return exitInvalidInput
	}

	log, err := metricsLog()
	if err != nil {
		fmt.Fprintf(os.Stderr, "routerctl: %v\n", err)
		return exitInvalidInput
	}

	now := time.Now()
	sinceT, untilT := parseRange(*since, *until, now)

	switch kind {
	case "daily":
		report, err := metrics.DailyReportFor(log, untilT)
		if err != nil {
			fmt.Fprintf(os.Stderr, "routerctl: %v\n", err)
			return exitInvalidInput
		}
		printJSON(report)
	case "weekly":
		reports, err := metrics.WeeklyReport(log, untilT)
		if err != nil {
			fmt.Fprintf(os.Stderr, "routerctl: %v\n", err)
			return exitInvalidInput
		}
		printJSON(reports)
	case "compliance":
		report, err := metrics.ComplianceReportFor(log, sinceT, untilT)
		if err != nil {
			fmt.Fprintf(os.Stderr, "routerctl: %v\n", err)
			return exitInvalidInput
		}
		printJSON(report)
	default:
		fmt.Fprintf(os.Stderr, "routerctl: unknown report %q\n", kind)
		return exitInvalidInput
	}
	return exitOK
}

func parseRange(since, until string, now time.Time) (time.Time, time.Time) {
	sinceT := now.AddDate(0, 0, -7)
	untilT := now
	if since != "" {
		if t, err := time.Parse("2006-01-02", since); err == nil {
			sinceT = t
		}
	}
	if until != "" {
		if t, err := time.Parse("2006-01-02", until); err == nil {
			untilT = t
		}
	}
	return sinceT, untilT
}

func cmdMetricsCleanup(args []string) int {
	fs := flag.NewFlagSet("metrics cleanup", flag.ContinueOnError)
	retentionDays := fs.Int("retention-days", 90, "delete daily files older than this many days")
	if err := fs.Parse(args); err != nil {
		return exitInvalidInput
	}

	log, err := metricsLog()
	if err != nil {
		fmt.Fprintf(os.Stderr, "routerctl: %v\n", err)
		return exitInvalidInput
	}

	deleted, err := metrics.Cleanup(log, time.Now(), *retentionDays)
	if err != nil {
		fmt.Fprintf(os.Stderr, "routerctl: %v\n", err)
		return exitInvalidInput
	}
	fmt.Printf("deleted %d expired daily file(s)\n", deleted)
	return exitOK
}

func workStore() (*workqueue.Store, error) {
	proj, _, err := currentProject()
	if err != nil {
		return nil, err
	}
	dataRoot, err := project.DataRoot()
	if err != nil {
		return nil, err
	}
	stateDir, err := project.DataDir(dataRoot, proj.ID, project.KindState)
	if err != nil {
		return nil, err
	}
	return workqueue.New(stateDir), nil
}

func cmdWork(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: routerctl work <enqueue|start|complete|fail|status> ...")
		return exitInvalidInput
	}

	store, err := workStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "routerctl: %v\n", err)
		return exitInvalidInput
	}

	switch args[0] {
	case "enqueue":
		return cmdWorkEnqueue(store, args[1:])
	case "start":
		return cmdWorkStart(store, args[1:])
	case "complete":
		return cmdWorkComplete(store, args[1:])
	case "fail":
		return cmdWorkFail(store, args[1:])
	case "status":
		st, err := store.Status()
		if err != nil {
			fmt.Fprintf(os.Stderr, "routerctl: %v\n", err)
			return exitInvalidInput
		}
		printJSON(st)
		return exitOK
	default:
		fmt.Fprintf(os.Stderr, "routerctl: unknown work subcommand %q\n", args[0])
		return exitInvalidInput
	}
}

func cmdWorkEnqueue(store *workqueue.Store, args []string) int {
	fs := flag.NewFlagSet("work enqueue", flag.ContinueOnError)
	id := fs.String("id", "", "work item id (generated if omitted)")
	description := fs.String("description", "", "work item description")
	agent := fs.String("agent", "", "agent to delegate to")
	priority := fs.Int("priority", 0, "priority (higher runs first)")
	if err := fs.Parse(args); err != nil {
		return exitInvalidInput
	}

	itemID := *id
	if itemID == "" {
		itemID = uuid.New().String()
	}

	item := workqueue.WorkItem{
		ID:          itemID,
		Description: *description,
		Agent:       *agent,
		Priority:    *priority,
	}
	if err := store.Enqueue(item); err != nil {
		fmt.Fprintf(os.Stderr, "routerctl: %v\n", err)
		return exitInvalidInput
	}
	fmt.Println(itemID)
	return exitOK
}

func cmdWorkStart(store *workqueue.Store, args []string) int {
	fs := flag.NewFlagSet("work start", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return exitInvalidInput
	}

	item, err := store.StartNext(time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "routerctl: %v\n", err)
		return exitStateTransitionError
	}
	if item == nil {
		fmt.Println("null")
		return exitOK
	}
	printJSON(item)
	return exitOK
}

func cmdWorkComplete(store *workqueue.Store, args []string) int {
	fs := flag.NewFlagSet("work complete", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return exitInvalidInput
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: routerctl work complete <id>")
		return exitInvalidInput
	}
	if err := store.Complete(fs.Arg(0), time.Now()); err != nil {
		fmt.Fprintf(os.Stderr, "routerctl: %v\n", err)
		return exitStateTransitionError
	}
	return exitOK
}

func cmdWorkFail(store *workqueue.Store, args []string) int {
	fs := flag.NewFlagSet("work fail", flag.ContinueOnError)
	reason := fs.String("reason", "", "failure reason")
	if err := fs.Parse(args); err != nil {
		return exitInvalidInput
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: routerctl work fail <id> --reason ...")
		return exitInvalidInput
	}
	id := fs.Arg(0)
	// --reason may also follow the id, as in the usage line.
	if err := fs.Parse(fs.Args()[1:]); err != nil {
		return exitInvalidInput
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "usage: routerctl work fail <id> --reason ...")
		return exitInvalidInput
	}
	if err := store.Fail(id, *reason, time.Now()); err != nil {
		fmt.Fprintf(os.Stderr, "routerctl: %v\n", err)
		return exitStateTransitionError
	}
	return exitOK
}

func cmdValidate(args []string) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return exitInvalidInput
	}

	proj, home, err := currentProject()
	if err != nil {
		fmt.Fprintf(os.Stderr, "validate: %v\n", err)
		return exitInvalidInput
	}

	ok := true
	check := func(name string, condition bool, detail string) {
		status := "OK"
		if !condition {
			status = "FAIL"
			ok = false
		}
		fmt.Printf("[%s] %s: %s\n", status, name, detail)
	}

	check("project root", proj.Root != "", proj.Root)

	dataRoot, err := project.DataRoot()
	check("data root resolvable", err == nil, dataRoot)
	if err == nil {
		for _, kind := range []project.Kind{project.KindState, project.KindMetrics, project.KindLogs, project.KindCache} {
			dir, derr := project.DataDir(dataRoot, proj.ID, kind)
			check(fmt.Sprintf("data dir %s", kind), derr == nil, dir)
		}
	}

	cfg := project.LoadConfig(proj.Root, home)
	check("configuration loadable", true, fmt.Sprintf("router_enabled=%v wip_limit=%d", cfg.RouterEnabled, cfg.WIPLimit))

	if !ok {
		return exitInvalidInput
	}
	return exitOK
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "routerctl: encoding output: %v\n", err)
		return
	}
	fmt.Println(string(data))
}
