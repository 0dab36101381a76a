// Package config resolves the command line and environment into one
// validated Config. Environment wins over flags, flags over defaults.
package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/vshulcz/Intfstat/internal/domain"
	"github.com/vshulcz/Intfstat/internal/misc"
	"github.com/vshulcz/Intfstat/internal/services/report"
)

// Action selects what a single invocation does.
type Action string

const (
	ActionShow      Action = "show"
	ActionSave      Action = "save"
	ActionDelete    Action = "delete"
	ActionDeleteAll Action = "delete_all"
	ActionRate      Action = "rate"
	ActionWatch     Action = "watch"
)

const (
	defaultTag         = "latest"
	defaultPeriod      = 1
	defaultWatch       = 2
	defaultDialTimeout = 5 * time.Second

	// namespaceAll is the -n value selecting every namespace at once.
	namespaceAll = "all"
)

type Config struct {
	Action Action
	Tag    string

	// Interfaces is the raw range expression from -i, expanded later.
	Interfaces string
	Namespace  domain.NamespaceSelector
	Scope      domain.DisplayScope
	Category   report.CategoryFilter

	Detail      bool
	NonZeroOnly bool
	JSON        bool

	// Period is the measurement window for ActionRate, Interval the
	// redisplay cadence for ActionWatch.
	Period   time.Duration
	Interval time.Duration

	// CacheDir holds the per-user baseline files.
	CacheDir string
	// Endpoints maps namespace to a counters-DB address; empty means
	// read the local kernel counters instead.
	Endpoints map[string]string
	RedisDB   int
	// DialTimeout bounds counters-DB connection setup.
	DialTimeout time.Duration
	// DSN enables the optional Postgres archive when non-empty.
	DSN string
	// OplogPath appends cache mutations as JSONL when non-empty.
	OplogPath string
}

// Load parses args (without the program name) and the environment.
// out receives flag usage output; nil discards it.
func Load(args []string, out io.Writer) (Config, error) {
	if out == nil {
		out = io.Discard
	}

	fs := flag.NewFlagSet("intfstat", flag.ContinueOnError)
	fs.SetOutput(out)

	var (
		saveOpt    bool
		deleteOpt  bool
		delAllOpt  bool
		periodOpt  int
		watchOpt   int
		ifaceOpt   string
		tagOpt     string
		nsOpt      string
		scopeOpt   string
		errorsOpt  bool
		fecOpt     bool
		trimOpt    bool
		rawOpt     bool
		nonzeroOpt bool
		detailOpt  bool
		jsonOpt    bool
	)

	fs.BoolVar(&saveOpt, "c", false, "save a fresh baseline under the tag and exit")
	fs.BoolVar(&deleteOpt, "d", false, "delete the baseline saved under the tag")
	fs.BoolVar(&delAllOpt, "D", false, "delete all saved baselines")
	fs.IntVar(&periodOpt, "p", 0, fmt.Sprintf("measure rates over N seconds, default: %d", defaultPeriod))
	fs.IntVar(&watchOpt, "w", 0, fmt.Sprintf("redisplay rates every N seconds until interrupted, default: %d", defaultWatch))
	fs.StringVar(&ifaceOpt, "i", "", "interface range, e.g. Ethernet0-4,Ethernet12")
	fs.StringVar(&tagOpt, "t", "", fmt.Sprintf("baseline tag, default: %s", defaultTag))
	fs.StringVar(&nsOpt, "n", "", fmt.Sprintf("namespace name, or %q for every namespace", namespaceAll))
	fs.StringVar(&scopeOpt, "s", "", "display scope: all, external or internal")
	fs.BoolVar(&errorsOpt, "e", false, "show error counters")
	fs.BoolVar(&fecOpt, "f", false, "show FEC counters")
	fs.BoolVar(&trimOpt, "T", false, "show trimming counters")
	fs.BoolVar(&rawOpt, "r", false, "show raw counters, ignoring any baseline")
	fs.BoolVar(&nonzeroOpt, "z", false, "hide rows whose visible counters are all zero")
	fs.BoolVar(&detailOpt, "a", false, "show every counter of the category, not the summary subset")
	fs.BoolVar(&jsonOpt, "j", false, "emit JSON instead of a table")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 0 {
		return Config{}, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}

	cfg := Config{
		Interfaces:  strings.TrimSpace(ifaceOpt),
		Detail:      detailOpt,
		NonZeroOnly: nonzeroOpt,
		JSON:        jsonOpt,
	}

	action, err := resolveAction(saveOpt, deleteOpt, delAllOpt, periodOpt, watchOpt)
	if err != nil {
		return Config{}, err
	}
	cfg.Action = action

	cfg.Tag = fromEnvOrFlag("INTFSTAT_TAG", tagOpt, defaultTag)

	ns := strings.TrimSpace(nsOpt)
	switch ns {
	case "":
		cfg.Namespace = domain.NamespaceSelector{Namespace: domain.DefaultNamespace}
	case namespaceAll:
		cfg.Namespace = domain.NamespaceSelector{All: true}
	default:
		cfg.Namespace = domain.NamespaceSelector{Namespace: ns}
	}

	cfg.Scope, err = parseScope(scopeOpt)
	if err != nil {
		return Config{}, err
	}

	cfg.Category, err = resolveCategory(errorsOpt, fecOpt, trimOpt, rawOpt)
	if err != nil {
		return Config{}, err
	}

	if action == ActionRate {
		cfg.Period = seconds(periodOpt, defaultPeriod)
		if cfg.Period <= 0 {
			return Config{}, fmt.Errorf("rate period must be > 0, got %ds", periodOpt)
		}
	}
	if action == ActionWatch {
		cfg.Interval = seconds(watchOpt, defaultWatch)
		if cfg.Interval <= 0 {
			return Config{}, fmt.Errorf("watch interval must be > 0, got %ds", watchOpt)
		}
	}

	cfg.CacheDir = fromEnvOrFlag("INTFSTAT_CACHE_DIR", "", defaultCacheDir())
	cfg.Endpoints, err = parseEndpoints(misc.Getenv("INTFSTAT_ENDPOINTS", ""))
	if err != nil {
		return Config{}, err
	}
	cfg.RedisDB = misc.GetInt("INTFSTAT_REDIS_DB", 0)
	cfg.DialTimeout = misc.GetDuration("INTFSTAT_DIAL_TIMEOUT", defaultDialTimeout)
	if strings.TrimSpace(os.Getenv("INTFSTAT_JSON")) != "" {
		cfg.JSON = misc.GetBool("INTFSTAT_JSON", cfg.JSON)
	}
	cfg.DSN = strings.TrimSpace(misc.Getenv("DATABASE_DSN", ""))
	cfg.OplogPath = strings.TrimSpace(misc.Getenv("INTFSTAT_OPLOG", ""))

	return cfg, nil
}

func resolveAction(save, del, delAll bool, period, watch int) (Action, error) {
	var picked []Action
	if save {
		picked = append(picked, ActionSave)
	}
	if del {
		picked = append(picked, ActionDelete)
	}
	if delAll {
		picked = append(picked, ActionDeleteAll)
	}
	if period > 0 {
		picked = append(picked, ActionRate)
	}
	if watch > 0 {
		picked = append(picked, ActionWatch)
	}
	switch len(picked) {
	case 0:
		return ActionShow, nil
	case 1:
		return picked[0], nil
	default:
		return "", fmt.Errorf("flags -c, -d, -D, -p and -w are mutually exclusive")
	}
}

func resolveCategory(errs, fec, trim, raw bool) (report.CategoryFilter, error) {
	var picked []report.CategoryFilter
	if errs {
		picked = append(picked, report.CategoryErrors)
	}
	if fec {
		picked = append(picked, report.CategoryFEC)
	}
	if trim {
		picked = append(picked, report.CategoryTrim)
	}
	if raw {
		picked = append(picked, report.CategoryRaw)
	}
	switch len(picked) {
	case 0:
		return report.CategoryAll, nil
	case 1:
		return picked[0], nil
	default:
		return "", fmt.Errorf("flags -e, -f, -T and -r are mutually exclusive")
	}
}

func parseScope(s string) (domain.DisplayScope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(domain.ScopeAll):
		return domain.ScopeAll, nil
	case string(domain.ScopeExternal):
		return domain.ScopeExternal, nil
	case string(domain.ScopeInternal):
		return domain.ScopeInternal, nil
	default:
		return "", fmt.Errorf("invalid scope %q: want all, external or internal", s)
	}
}

// parseEndpoints reads "addr" or "ns1=addr1,ns2=addr2". A bare address
// is assigned to the default namespace.
func parseEndpoints(s string) (map[string]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	out := make(map[string]string)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		ns, addr, found := strings.Cut(part, "=")
		if !found {
			if len(out) > 0 {
				return nil, fmt.Errorf("endpoint %q lacks a namespace prefix", part)
			}
			return map[string]string{domain.DefaultNamespace: part}, nil
		}
		ns, addr = strings.TrimSpace(ns), strings.TrimSpace(addr)
		if ns == "" || addr == "" {
			return nil, fmt.Errorf("invalid endpoint entry %q", part)
		}
		if _, dup := out[ns]; dup {
			return nil, fmt.Errorf("duplicate endpoint for namespace %q", ns)
		}
		out[ns] = addr
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no endpoints in %q", s)
	}
	return out, nil
}

func fromEnvOrFlag(envKey, flagVal, def string) string {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		return v
	}
	if v := strings.TrimSpace(flagVal); v != "" {
		return v
	}
	return def
}

func seconds(n, def int) time.Duration {
	if n <= 0 {
		n = def
	}
	return time.Duration(n) * time.Second
}

func defaultCacheDir() string {
	return fmt.Sprintf("%s/intfstat-%d", os.TempDir(), os.Getuid())
}
