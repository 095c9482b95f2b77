// Command govcore runs the governance core service: policy engine,
// provenance ledger, contract engine, and reflexive core behind a
// single HTTP API, with a separate metrics listener.
package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/proofmesh/govcore/pkg/config"
	"github.com/proofmesh/govcore/pkg/contract"
	"github.com/proofmesh/govcore/pkg/database"
	"github.com/proofmesh/govcore/pkg/kvdb"
	"github.com/proofmesh/govcore/pkg/ledger"
	"github.com/proofmesh/govcore/pkg/ledgeradapter"
	"github.com/proofmesh/govcore/pkg/metrics"
	"github.com/proofmesh/govcore/pkg/policy"
	"github.com/proofmesh/govcore/pkg/policy/hipaa"
	"github.com/proofmesh/govcore/pkg/policy/minnecessary"
	"github.com/proofmesh/govcore/pkg/policy/rbac"
	"github.com/proofmesh/govcore/pkg/reflexive"
	"github.com/proofmesh/govcore/pkg/reflexive/monitors"
	"github.com/proofmesh/govcore/pkg/server"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.Printf("starting governance core service")

	showHelp := flag.Bool("help", false, "Show help message")
	devMode := flag.Bool("dev", false, "Run with relaxed (development) config validation")
	flag.Parse()

	if *showHelp {
		printHelp()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration:", err)
	}

	if *devMode {
		if err := cfg.ValidateForDevelopment(); err != nil {
			log.Fatal("invalid configuration:", err)
		}
	} else {
		if err := cfg.Validate(); err != nil {
			log.Fatal("invalid configuration:", err)
		}
	}

	// Database: queryable mirror of the contract/ledger stores.
	var dbClient *database.Client
	var repos *database.Repositories
	dbClient, err = database.NewClient(cfg, database.WithLogger(
		log.New(log.Writer(), "[Database] ", log.LstdFlags),
	))
	if err != nil {
		if cfg.DatabaseRequired {
			log.Fatalf("database connection required but failed: %v", err)
		}
		log.Printf("database connection failed, running without a queryable mirror: %v", err)
		dbClient = nil
	} else {
		if err := dbClient.MigrateUp(context.Background()); err != nil {
			log.Printf("database migration failed: %v", err)
		}
		repos = database.NewRepositories(dbClient)
	}

	// Provenance ledger: hot-path hash chain over a KV backend.
	var kv ledger.KV
	switch cfg.LedgerBackend {
	case "cometbft":
		goLevelDB, err := kvdb.OpenGoLevelDB("govcore_ledger", cfg.LedgerDataDir)
		if err != nil {
			log.Fatalf("failed to open cometbft-db ledger backend at %s: %v", cfg.LedgerDataDir, err)
		}
		kv = goLevelDB
	default:
		kv = ledger.NewMemKV()
	}
	ledgerStore := ledger.New(kv, cfg.LedgerBlockSize)

	// Policy engine: built-in RBAC, minimum-necessary, and HIPAA
	// policies, optionally overridden by a YAML bundle.
	registry := policy.NewRegistry()
	policyEngine := policy.New(registry, log.New(log.Writer(), "[Policy] ", log.LstdFlags))
	registerDefaultPolicies(policyEngine)

	if cfg.PolicyBundlePath != "" {
		bundle, err := policy.LoadBundleFile(cfg.PolicyBundlePath)
		if err != nil {
			log.Fatalf("failed to load policy bundle %s: %v", cfg.PolicyBundlePath, err)
		}
		if err := policyEngine.ApplyBundle(bundle); err != nil {
			log.Fatalf("failed to apply policy bundle %s: %v", cfg.PolicyBundlePath, err)
		}
		log.Printf("loaded policy bundle from %s", cfg.PolicyBundlePath)
	}

	// Contract engine: in-memory store, Ed25519 signing identity
	// loaded or generated under DataDir.
	if _, err := loadOrGenerateEd25519Key(cfg); err != nil {
		log.Fatalf("failed to load/generate Ed25519 key: %v", err)
	}
	contractEngine := contract.New(nil, log.New(log.Writer(), "[Contract] ", log.LstdFlags))

	// Reflexive core: built-in monitors, async decision loop.
	reflexiveEngine := reflexive.New(reflexive.Config{
		QueueSize:    cfg.ReflexiveQueueSize,
		PollInterval: cfg.ReflexivePollInterval,
		Ledger:       ledgerStore,
		Logger:       log.New(log.Writer(), "[Reflexive] ", log.LstdFlags),
	})
	reflexiveEngine.AddMonitor(monitors.NewPolicyMonitor())
	reflexiveEngine.AddMonitor(monitors.NewLedgerMonitor(ledgerStore))
	reflexiveEngine.AddMonitor(monitors.NewAnomalyMonitor())
	reflexiveEngine.Start()

	m := metrics.New()

	anchorStop := make(chan struct{})
	if cfg.AnchorEnabled {
		adapter := newAnchorAdapter(cfg)
		go runAnchorPoller(anchorStop, ledgerStore, adapter, cfg.AnchorInterval)
		log.Printf("external anchor polling enabled (%s adapter, every %s)", cfg.AnchorAdapter, cfg.AnchorInterval)
	}

	srv := server.New(policyEngine, contractEngine, ledgerStore, reflexiveEngine, m)
	if repos != nil {
		srv = srv.WithRepositories(repos)
	}

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Handler(),
	}
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", m.Handler())
	metricsServer := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: metricsMux,
	}

	go func() {
		log.Printf("API listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start HTTP server:", err)
		}
	}()
	go func() {
		log.Printf("metrics listening on %s", cfg.MetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Printf("shutting down governance core service")

	if cfg.AnchorEnabled {
		close(anchorStop)
	}
	reflexiveEngine.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("metrics server shutdown error: %v", err)
	}
	if dbClient != nil {
		if err := dbClient.Close(); err != nil {
			log.Printf("database client close error: %v", err)
		}
	}

	log.Printf("governance core service stopped")
}

// registerDefaultPolicies wires the three built-in policy types with
// permissive defaults, giving a working policy set out of the box even
// with no YAML bundle configured.
func registerDefaultPolicies(e *policy.Engine) {
	e.RegisterPolicy(rbac.New("rbac", rbac.Config{
		Roles: map[string]rbac.RoleDef{
			"admin":  {Description: "full access", Permissions: []string{"*"}},
			"member": {Description: "standard access", Permissions: []string{"read", "write"}},
			"guest":  {Description: "read-only access", Permissions: []string{"read"}},
		},
	}))
	e.RegisterPolicy(minnecessary.New("minimum_necessary", minnecessary.Config{
		SensitiveActions:      []string{"admin_access", "delete", "export"},
		SensitiveResources:    []string{"sensitive-resource-1"},
		RequiredJustification: true,
	}))
	e.RegisterPolicy(hipaa.New("hipaa"))
	e.SetEvaluationOrder([]string{"rbac", "minimum_necessary", "hipaa"})
}

// newAnchorAdapter builds the configured external-anchor adapter. Submission
// to any of these is fire-and-remember: an anchor failure never
// invalidates local ledger state, per the ledger adapter contract.
func newAnchorAdapter(cfg *config.Config) ledgeradapter.Adapter {
	switch cfg.AnchorAdapter {
	case "hyperledger":
		return ledgeradapter.NewHyperledgerAdapter(ledgeradapter.DefaultHyperledgerConfig(cfg.LedgerDataDir))
	case "omniseal":
		return ledgeradapter.NewOmniSealAdapter(ledgeradapter.DefaultOmniSealConfig())
	default:
		return ledgeradapter.NewStubAdapter()
	}
}

// runAnchorPoller submits every newly sealed block to the external anchor
// on a fixed interval until stop is closed. It tracks the last anchored
// block number in memory only: a restart re-anchors already-sealed
// blocks, which adapters tolerate since anchoring is idempotent
// fire-and-remember submission, not a source of truth.
func runAnchorPoller(stop <-chan struct{}, store *ledger.Store, adapter ledgeradapter.Adapter, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastAnchored uint64
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			stats, err := store.GetLedgerStatistics()
			if err != nil {
				log.Printf("anchor poll: failed to read ledger statistics: %v", err)
				continue
			}
			for num := lastAnchored + 1; num <= stats.CurrentBlock; num++ {
				snapshot, err := store.BlockSnapshotFor(num)
				if err != nil {
					log.Printf("anchor poll: block %d snapshot: %v", num, err)
					break
				}
				if snapshot.MerkleRoot == "" {
					break // the open block is not sealed yet
				}
				anchorID, err := adapter.SubmitBlock(context.Background(), *snapshot)
				if err != nil {
					log.Printf("anchor poll: submit block %d failed (local ledger remains authoritative): %v", num, err)
					break
				}
				log.Printf("anchored block %d as %s", num, anchorID)
				lastAnchored = num
			}
		}
	}
}

// loadOrGenerateEd25519Key loads the contract-signing identity from
// cfg.Ed25519KeyPath, generating and persisting a fresh key on first run.
func loadOrGenerateEd25519Key(cfg *config.Config) (ed25519.PrivateKey, error) {
	keyPath := cfg.Ed25519KeyPath
	if keyPath == "" {
		dataDir := cfg.DataDir
		if dataDir == "" {
			dataDir = "./data"
		}
		keyPath = filepath.Join(dataDir, "ed25519_key.hex")
	}

	keyDir := filepath.Dir(keyPath)
	if err := os.MkdirAll(keyDir, 0700); err != nil {
		return nil, fmt.Errorf("create key directory %s: %w", keyDir, err)
	}

	if _, err := os.Stat(keyPath); os.IsNotExist(err) {
		log.Printf("generating new Ed25519 signing key at %s", keyPath)
		_, privateKey, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("generate ed25519 key: %w", err)
		}
		keyHex := hex.EncodeToString(privateKey)
		if err := os.WriteFile(keyPath, []byte(keyHex), 0600); err != nil {
			return nil, fmt.Errorf("save ed25519 key to %s: %w", keyPath, err)
		}
		return privateKey, nil
	}

	data, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("read ed25519 key from %s: %w", keyPath, err)
	}
	keyBytes, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("decode ed25519 key from %s: %w", keyPath, err)
	}
	if len(keyBytes) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("invalid ed25519 key size: expected %d, got %d", ed25519.PrivateKeySize, len(keyBytes))
	}
	return ed25519.PrivateKey(keyBytes), nil
}

func printHelp() {
	fmt.Println(`govcore - governance core service for tool-serving agent platforms

Usage:
  govcore [flags]

Flags:
  -dev     Run with relaxed (development) configuration validation
  -help    Show this help message

Configuration is read from environment variables; see pkg/config for the
full list and their defaults.`)
}
