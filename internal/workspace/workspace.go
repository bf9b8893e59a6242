// Package workspace provisions the node workspace the supervisor launches
// from: a package manifest, the generated launcher script, and installed
// dependencies. The supervisor treats this as a black box that yields a
// working directory and an artifact path.
package workspace

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/loykin/pglite/internal/config"
)

// ArtifactName is the generated launcher script. The conflict reaper matches
// leftover processes by this name, so it is fixed.
const ArtifactName = "pglite_manager.js"

const (
	packageName    = "pglite-env"
	packageVersion = "0.1.0"
	npmTimeout     = 60 * time.Second
)

// Workspace is the provisioned launch environment for one child process.
type Workspace struct {
	Dir      string
	Artifact string
	Env      []string // extra K=V entries for the child (NODE_PATH, NODE_OPTIONS)
}

// Provisioner writes the workspace described by a Config.
type Provisioner struct {
	cfg *config.Config
	log *slog.Logger
}

func New(cfg *config.Config, log *slog.Logger) *Provisioner {
	return &Provisioner{cfg: cfg, log: log}
}

// Prepare ensures the work directory, manifest, launcher script and node
// dependencies exist, and returns the launch environment. Existing files are
// left untouched so callers can pin custom launchers.
func (p *Provisioner) Prepare(ctx context.Context) (Workspace, error) {
	dir, err := p.ensureWorkDir()
	if err != nil {
		return Workspace{}, err
	}
	if err := p.writePackageJSON(dir); err != nil {
		return Workspace{}, err
	}
	artifact := filepath.Join(dir, ArtifactName)
	if err := p.writeLauncher(artifact); err != nil {
		return Workspace{}, err
	}
	if err := p.installDeps(ctx, dir); err != nil {
		return Workspace{}, err
	}

	var extra []string
	if p.cfg.NodeOptions != "" {
		p.log.Info("using custom NODE_OPTIONS", "node_options", p.cfg.NodeOptions)
		extra = append(extra, "NODE_OPTIONS="+p.cfg.NodeOptions)
	}
	if modules := FindModules(dir); modules != "" {
		p.log.Info("setting NODE_PATH", "node_path", modules)
		extra = append(extra, "NODE_PATH="+modules)
	}
	return Workspace{Dir: dir, Artifact: artifact, Env: extra}, nil
}

func (p *Provisioner) ensureWorkDir() (string, error) {
	if p.cfg.WorkDir != "" {
		if err := os.MkdirAll(p.cfg.WorkDir, 0o750); err != nil {
			return "", fmt.Errorf("create work dir: %w", err)
		}
		return p.cfg.WorkDir, nil
	}
	dir, err := os.MkdirTemp("", "pglite-")
	if err != nil {
		return "", fmt.Errorf("create temp work dir: %w", err)
	}
	return dir, nil
}

func (p *Provisioner) writePackageJSON(dir string) error {
	path := filepath.Join(dir, "package.json")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	manifest := map[string]any{
		"name":        packageName,
		"version":     packageVersion,
		"description": "PGlite test environment",
		"scripts":     map[string]string{"start": "node " + ArtifactName},
		"dependencies": map[string]string{
			"@electric-sql/pglite":        "^0.3.0",
			"@electric-sql/pglite-socket": "^0.0.8",
		},
	}
	b, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

func (p *Provisioner) writeLauncher(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	script, err := RenderLauncher(p.cfg.SocketPath, p.cfg.Extensions)
	if err != nil {
		return fmt.Errorf("render launcher: %w", err)
	}
	return os.WriteFile(path, []byte(script), 0o600)
}

// installDeps runs npm install when configured and node_modules is missing.
func (p *Provisioner) installDeps(ctx context.Context, dir string) error {
	if !p.cfg.AutoInstallDeps {
		return nil
	}
	if !p.cfg.NodeModulesCheck {
		return nil
	}
	if _, err := os.Stat(filepath.Join(dir, "node_modules")); err == nil {
		return nil
	}
	p.log.Info("installing npm dependencies", "dir", dir)
	ctx, cancel := context.WithTimeout(ctx, npmTimeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, "npm", "install")
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("npm install: %w: %s", err, out)
	}
	p.log.Info("npm install completed")
	return nil
}

// FindModules walks upward from dir looking for a node_modules tree that
// contains @electric-sql/pglite, for use as NODE_PATH.
func FindModules(dir string) string {
	for cur := dir; ; {
		candidate := filepath.Join(cur, "node_modules")
		if _, err := os.Stat(filepath.Join(candidate, "@electric-sql", "pglite")); err == nil {
			return candidate
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return ""
		}
		cur = parent
	}
}
