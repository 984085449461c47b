package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/juju/loggo"
	"github.com/spf13/cobra"

	"github.com/BrianJOC/workstation-bootstrap/config"
	"github.com/BrianJOC/workstation-bootstrap/pkg/stepapp"
	"github.com/BrianJOC/workstation-bootstrap/pkg/stepapp/bundles/workstation"
	"github.com/BrianJOC/workstation-bootstrap/steps"
	"github.com/BrianJOC/workstation-bootstrap/steps/ansible"
	"github.com/BrianJOC/workstation-bootstrap/steps/sudoensure"
	"github.com/BrianJOC/workstation-bootstrap/utils/command"
	"github.com/BrianJOC/workstation-bootstrap/utils/osinfo"
)

var logger = loggo.GetLogger("bootstrap")

// deps holds the process-level collaborators so tests can swap them.
type deps struct {
	stdin    *os.File
	stdout   io.Writer
	stderr   io.Writer
	getenv   func(string) string
	runner   command.InputRunner
	detect   func(ctx context.Context, r command.Runner) (osinfo.Info, error)
	registry func(cfg *config.Config, opts ...ansible.Option) (*steps.Registry, error)
	acquirer func(base command.InputRunner) steps.PrivilegeAcquirer
	runID    func() string
}

func defaultDeps() deps {
	return deps{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		getenv: os.Getenv,
		runner: command.NewLocal(),
		detect: func(ctx context.Context, r command.Runner) (osinfo.Info, error) {
			return osinfo.Detect(ctx, r)
		},
		registry: workstation.Registry,
		acquirer: func(base command.InputRunner) steps.PrivilegeAcquirer {
			return sudoensure.New(base).Func()
		},
		runID: uuid.NewString,
	}
}

type options struct {
	list       bool
	configPath string
	logLevel   string
	tui        bool
	check      bool
}

type cli struct {
	deps  deps
	opts  options
	lc    *steps.Lifecycle
	runID string
	level loggo.Level
	// playbookOut receives ansible-playbook output.
	playbookOut *redirect
}

// run executes one invocation and returns the process exit status.
func run(ctx context.Context, args []string, d deps) int {
	runID := d.runID()
	lc, err := steps.NewLifecycle(runID)
	if err != nil {
		fmt.Fprintf(d.stderr, "error: %v\n", err)
		return steps.ExitFailure
	}
	defer lc.Stop()

	c := &cli{deps: d, lc: lc, runID: runID, playbookOut: &redirect{w: d.stdout}}
	cmd := c.command()
	cmd.SetArgs(args)
	cmd.SetIn(d.stdin)
	cmd.SetOut(d.stdout)
	cmd.SetErr(d.stderr)

	err = cmd.ExecuteContext(ctx)
	if err == nil {
		// Help never reaches RunE.
		if lc.State() == steps.StateParsing {
			lc.Exit()
		}
		return lc.ExitCode()
	}

	var exitErr ExitError
	if !errors.As(err, &exitErr) {
		// Flag parsing failed before RunE.
		lc.Reject(err)
		exitErr = ExitError{Code: lc.ExitCode(), Err: err, Usage: true}
	}
	if exitErr.Err != nil {
		fmt.Fprintf(d.stderr, "error: %v\n", exitErr.Err)
	}
	if exitErr.Usage {
		fmt.Fprint(d.stderr, cmd.UsageString())
	}
	return exitErr.Code
}

func (c *cli) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bootstrap [flags] [component ...]",
		Short: "Provision a Debian or Ubuntu workstation",
		Long: `Provision a Debian or Ubuntu workstation one component at a time.

Every component checks whether its target state already exists and only
applies what is missing, so re-running is safe. Name components to run a
subset, use "all" for everything, or pass nothing to run every component.`,
		Example: `  bootstrap --list
  bootstrap cli ssh shell
  bootstrap --check all
  bootstrap --tui docker`,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          c.runE,
	}

	flags := cmd.Flags()
	flags.BoolVarP(&c.opts.list, "list", "l", false, "list available components and exit")
	flags.StringVar(&c.opts.configPath, "config", "", "configuration overlay (.yaml, .yml or .toml)")
	flags.StringVar(&c.opts.logLevel, "log-level", "INFO", "log level (TRACE, DEBUG, INFO, WARNING, ERROR)")
	flags.BoolVar(&c.opts.tui, "tui", false, "show an interactive progress view")
	flags.BoolVar(&c.opts.check, "check", false, "report which components are satisfied without changing anything")
	return cmd
}

func (c *cli) runE(cmd *cobra.Command, tokens []string) error {
	level, ok := loggo.ParseLevel(c.opts.logLevel)
	if !ok {
		return c.reject(LogLevelError{Value: c.opts.logLevel}, true)
	}
	c.level = level
	if err := setupLogging(c.deps.stderr, level); err != nil {
		return c.reject(err, false)
	}

	cfg, err := config.Load(c.opts.configPath)
	if err != nil {
		return c.reject(err, false)
	}
	if err := cfg.Validate(); err != nil {
		return c.reject(err, false)
	}

	reg, err := c.deps.registry(cfg, ansible.WithOutput(c.playbookOut))
	if err != nil {
		return c.reject(err, false)
	}

	sel, err := steps.Select(reg, tokens)
	if err != nil {
		return c.reject(err, true)
	}
	if c.opts.list {
		stepapp.PrintList(c.deps.stdout, reg)
		c.lc.Exit()
		return nil
	}
	c.lc.Parsed()

	if sel.Defaulted {
		// Written directly so --log-level cannot hide it.
		fmt.Fprintf(c.deps.stderr, "warning: no components given; running all: %s\n", strings.Join(sel.IDs, ", "))
	}

	info, err := c.deps.detect(cmd.Context(), c.deps.runner)
	if err != nil {
		return c.reject(fmt.Errorf("detect host: %w", err), false)
	}
	c.lc.Validated()

	env := steps.NewEnv(steps.Facts{
		Arch:     info.Arch,
		Codename: info.Codename,
		DistroID: info.Family,
		User:     info.User,
		Home:     info.Home,
	}, c.deps.runner, steps.WithStateDir(c.stateDir(info.Home)))

	logger.Infof("run %s: %s on %s %s (%s) for %s", c.runID, strings.Join(sel.IDs, ", "), info.ID, info.Codename, info.Arch, info.User)

	managerOpts := []steps.ManagerOption{steps.WithPrivilegeAcquirer(c.deps.acquirer(c.deps.runner))}
	if c.opts.check {
		managerOpts = append(managerOpts, steps.WithCheckOnly())
	}

	if c.opts.tui {
		err = c.runTUI(cmd.Context(), reg, sel, env, managerOpts)
	} else {
		err = c.runConsole(cmd.Context(), reg, sel, env, managerOpts)
	}

	c.lc.Finish(err)
	if err != nil {
		logger.Errorf("run %s failed: %v", c.runID, err)
		return ExitError{Code: c.lc.ExitCode(), Err: err}
	}
	logger.Infof("run %s finished", c.runID)
	return nil
}

func (c *cli) runConsole(ctx context.Context, reg *steps.Registry, sel steps.Selection, env *steps.Env, opts []steps.ManagerOption) error {
	opts = append(opts,
		steps.WithObserver(stepapp.NewConsole(c.deps.stdout)),
		steps.WithInputHandler(stepapp.NewTerminalPrompt(c.deps.stdin, c.deps.stderr)),
	)
	report, err := steps.NewManager(reg, opts...).Run(ctx, env, sel)
	c.printReport(report)
	return err
}

func (c *cli) runTUI(ctx context.Context, reg *steps.Registry, sel steps.Selection, env *steps.Env, opts []steps.ManagerOption) error {
	logFile, err := openLogFile(env.StateDir)
	if err != nil {
		return err
	}
	defer logFile.Close()

	// The screen belongs to the program while it runs.
	if err := setupLogging(logFile, c.level); err != nil {
		return err
	}
	defer func() {
		_ = setupLogging(c.deps.stderr, c.level)
	}()
	c.playbookOut.w = logFile
	logger.Infof("run %s started", c.runID)

	app, err := stepapp.New(
		stepapp.WithRun(reg, sel, env),
		stepapp.WithManagerOptions(opts...),
		stepapp.WithProgramOptions(tea.WithInput(c.deps.stdin), tea.WithOutput(c.deps.stdout), tea.WithAltScreen()),
	)
	if err != nil {
		return err
	}
	report, err := app.Start(ctx)
	c.printReport(report)
	fmt.Fprintf(c.deps.stdout, "log: %s\n", logFile.Name())
	return err
}

func (c *cli) printReport(report steps.Report) {
	if c.opts.check {
		stepapp.PrintCheck(c.deps.stdout, report)
		return
	}
	stepapp.PrintSummary(c.deps.stdout, report)
	fmt.Fprintf(c.deps.stdout, "run %s\n", c.runID)
}

// stateDir follows the XDG base directory layout for the invoking user.
func (c *cli) stateDir(home string) string {
	if dir := c.deps.getenv("XDG_STATE_HOME"); filepath.IsAbs(dir) {
		return filepath.Join(dir, "bootstrap")
	}
	return filepath.Join(home, ".local", "state", "bootstrap")
}

func (c *cli) reject(err error, usage bool) error {
	c.lc.Reject(err)
	return ExitError{Code: c.lc.ExitCode(), Err: err, Usage: usage}
}
