package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/MakeNowJust/heredoc"
	"github.com/atotto/clipboard"

	"github.com/unkn0wn-root/recurl/internal/config"
	"github.com/unkn0wn-root/recurl/internal/export"
	"github.com/unkn0wn-root/recurl/internal/history"
	"github.com/unkn0wn-root/recurl/internal/httpclient"
	"github.com/unkn0wn-root/recurl/internal/importer"
	"github.com/unkn0wn-root/recurl/internal/render"
	"github.com/unkn0wn-root/recurl/internal/requestfile"
	"github.com/unkn0wn-root/recurl/internal/respwriter"
	"github.com/unkn0wn-root/recurl/internal/telemetry"
	"github.com/unkn0wn-root/recurl/internal/ui"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	log.SetFlags(0)

	settings, _, err := config.LoadSettings()
	if err != nil {
		log.Printf("settings load error: %v", err)
		settings = config.DefaultSettings()
	}

	var (
		profileName  string
		configPath   string
		envFile      string
		outputDir    string
		workdir      string
		importCmd    string
		importOut    string
		exportName   string
		previewBytes int
		timeout      time.Duration
		insecure     bool
		follow       bool
		proxyURL     string
		noColor      bool
		showVersion  bool
	)

	flag.StringVar(&profileName, "profile", "", "Profile name from recurl.json")
	flag.StringVar(&configPath, "config", "", "Path to recurl.json, or a directory containing it")
	flag.StringVar(&envFile, "env", "", "Env file loaded on top of config variables")
	flag.StringVar(&outputDir, "output", "", "Directory for saved response bodies")
	flag.StringVar(&workdir, "cwd", "", "Working directory for request files")
	flag.StringVar(&importCmd, "import", "", "Curl command to import; 'clipboard' reads the system clipboard, '-' reads stdin")
	flag.StringVar(&importOut, "import-out", "", "Destination file for the imported request definition")
	flag.StringVar(&exportName, "export", "", "Render the request as a snippet (js-fetch, curl) instead of executing it")
	flag.IntVar(&previewBytes, "preview", settings.PreviewBytes, "Body bytes shown in the terminal (0 shows all)")
	flag.DurationVar(&timeout, "timeout", time.Duration(settings.Timeout), "Request timeout")
	flag.BoolVar(&insecure, "insecure", false, "Skip TLS certificate verification")
	flag.BoolVar(&follow, "follow", settings.FollowRedirects, "Follow redirects")
	flag.StringVar(&proxyURL, "proxy", "", "HTTP proxy URL")
	flag.BoolVar(&noColor, "no-color", false, "Disable colored output")
	flag.BoolVar(&showVersion, "version", false, "Show recurl version")
	flag.Usage = usage
	flag.Parse()

	if showVersion {
		fmt.Printf("recurl %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
		os.Exit(0)
	}

	if workdir == "" {
		if wd, err := os.Getwd(); err == nil {
			workdir = wd
		} else {
			workdir = "."
		}
	} else if abs, err := filepath.Abs(workdir); err == nil {
		workdir = abs
	}

	loaded, err := loadProject(configPath, workdir)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if loaded == nil && profileName != "" {
		log.Fatalf("profile %q requested but no %s found", profileName, config.FileName)
	}

	configDir := workdir
	if loaded != nil {
		configDir = loaded.Dir
	}
	if envFile != "" && !filepath.IsAbs(envFile) {
		envFile = filepath.Join(workdir, envFile)
	}

	env, err := config.ResolveEnvironment(config.ResolveOptions{
		BaseDir:   workdir,
		ConfigDir: configDir,
		Config:    loaded,
		Profile:   profileName,
		EnvPath:   envFile,
		OutputDir: outputDir,
	})
	if err != nil {
		log.Fatalf("environment: %v", err)
	}

	if importCmd != "" {
		if err := runImport(importCmd, importOut, workdir, loaded, env); err != nil {
			log.Fatalf("import: %v", err)
		}
		return
	}

	if exportName != "" {
		if flag.NArg() == 0 {
			log.Fatalf("export: a request file argument is required")
		}
		if err := runExport(exportName, requestPath(flag.Arg(0), workdir), env); err != nil {
			log.Fatalf("export: %v", err)
		}
		return
	}

	client := httpclient.NewClient()

	telemetryCfg := telemetry.ConfigFromEnv(os.Getenv)
	telemetryCfg.Version = version
	provider, err := telemetry.New(telemetryCfg)
	if err != nil {
		log.Printf("telemetry init error: %v", err)
	} else {
		client.SetTelemetry(provider)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if shutdownErr := provider.Shutdown(ctx); shutdownErr != nil {
				log.Printf("telemetry shutdown: %v", shutdownErr)
			}
		}()
	}

	historyStore := history.NewStore(filepath.Join(config.Dir(), "history.json"), 500)
	if err := historyStore.Load(); err != nil {
		log.Printf("history load error: %v", err)
	}

	runner := &app{
		env:     env,
		client:  client,
		history: historyStore,
		httpOpts: httpclient.Options{
			Timeout:            timeout,
			FollowRedirects:    follow,
			InsecureSkipVerify: insecure,
			ProxyURL:           proxyURL,
			Profile:            env.ProfileName,
		},
		previewBytes: previewBytes,
		color:        !noColor,
	}

	if flag.NArg() > 0 {
		output, err := runner.run(requestPath(flag.Arg(0), workdir))
		if err != nil {
			log.Fatalf("run: %v", err)
		}
		fmt.Print(output)
		return
	}

	paths, err := collectRequestFiles(workdir)
	if err != nil {
		log.Fatalf("scan: %v", err)
	}
	if len(paths) == 0 {
		log.Fatalf("no .curl request files found under %s", workdir)
	}
	if err := ui.Run(paths, runner.run); err != nil {
		log.Fatalf("interactive: %v", err)
	}
}

type app struct {
	env          *config.Environment
	client       *httpclient.Client
	history      *history.Store
	httpOpts     httpclient.Options
	previewBytes int
	color        bool
}

// run parses, executes and renders one request file.
func (a *app) run(path string) (string, error) {
	parsed, err := requestfile.ParseFile(path, a.env)
	if err != nil {
		return "", err
	}

	def := parsed.Request
	def.Headers = importer.HeaderRules{Append: a.env.DefaultHeaders}.Apply(def.Headers)

	opts := a.httpOpts
	opts.RequestName = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	resp, err := a.client.Execute(context.Background(), def, opts)
	if err != nil {
		return "", err
	}

	savedPath, err := respwriter.WriteResponseBody(
		resp.Body, resp.Headers.Get("Content-Type"), a.env.ResponseOutputDir, path,
	)
	if err != nil {
		return "", err
	}

	entry := history.Entry{
		ExecutedAt:  time.Now(),
		Profile:     a.env.ProfileName,
		RequestFile: path,
		Method:      def.Method,
		URL:         def.URL,
		Status:      resp.Status,
		StatusCode:  resp.StatusCode,
		Duration:    resp.Duration,
		BodySnippet: respwriter.CreatePreview(resp.Body, 256),
	}
	if err := a.history.Append(entry); err != nil {
		log.Printf("history append error: %v", err)
	}

	return render.Response(resp, render.Options{
		PreviewBytes: a.previewBytes,
		Color:        a.color,
		SavedPath:    savedPath,
	}), nil
}

func runImport(command, destination, workdir string, loaded *config.Loaded, env *config.Environment) error {
	resolved, err := resolveImportCommand(command)
	if err != nil {
		return err
	}

	opts := importer.Options{
		Command:           resolved,
		TemplateVariables: env.TemplateVariables,
		EnvVariables:      env.InitialEnv,
	}
	if loaded != nil && loaded.Config.Import != nil {
		opts.Rules = importer.HeaderRules{
			Include: loaded.Config.Import.IncludeHeaders,
			Exclude: loaded.Config.Import.ExcludeHeaders,
			Append:  loaded.Config.Import.AppendHeaders,
		}
	}

	result, err := importer.Import(opts)
	if err != nil {
		return err
	}
	for _, warning := range result.Warnings {
		log.Printf("warning: %s", warning)
	}

	if destination == "" {
		destination = filepath.Join(workdir, result.SuggestedFilename)
	} else if !filepath.IsAbs(destination) {
		destination = filepath.Join(workdir, destination)
	}
	if _, err := os.Stat(destination); err == nil {
		return fmt.Errorf("%s already exists", destination)
	}
	if err := os.WriteFile(destination, []byte(result.Contents), 0o644); err != nil {
		return err
	}

	fmt.Printf("imported %s %s\n", result.Method, result.URL)
	fmt.Printf("wrote %s\n", destination)
	return nil
}

func runExport(name, path string, env *config.Environment) error {
	parsed, err := requestfile.ParseFile(path, env)
	if err != nil {
		return err
	}
	rendered, err := export.Render(name, parsed.Request)
	if err != nil {
		return err
	}
	fmt.Print(rendered)
	return nil
}

// resolveImportCommand supports inline commands plus two indirections:
// the system clipboard and stdin.
func resolveImportCommand(command string) (string, error) {
	switch command {
	case "clipboard":
		contents, err := clipboard.ReadAll()
		if err != nil {
			return "", fmt.Errorf("reading clipboard: %w", err)
		}
		return contents, nil
	case "-":
		contents, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(contents), nil
	default:
		return command, nil
	}
}

func loadProject(configPath, workdir string) (*config.Loaded, error) {
	target := configPath
	if target == "" {
		target = workdir
	}
	return config.Load(target)
}

func requestPath(arg, workdir string) string {
	if filepath.IsAbs(arg) {
		return filepath.Clean(arg)
	}
	return filepath.Join(workdir, arg)
}

func collectRequestFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".curl") {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func usage() {
	fmt.Fprint(os.Stderr, heredoc.Doc(`
		recurl executes file-based HTTP request definitions and imports
		curl commands into parameterized request files.

		Usage:
		  recurl [flags] <request-file>       execute one request
		  recurl [flags]                      pick from *.curl files interactively
		  recurl -import '<curl command>'     convert a curl command to a request file
		  recurl -export js-fetch <file>      render an export snippet

		Flags:
	`))
	flag.PrintDefaults()
}
