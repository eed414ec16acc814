// SPDX-License-Identifier: MPL-2.0

package modupdate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"golang.org/x/mod/semver"

	"github.com/dota2-divine-ui/updater/internal/install"
	"github.com/dota2-divine-ui/updater/internal/platform"
)

// Version change directions reported by Check.
const (
	DirectionNone      Direction = "none"
	DirectionInstall   Direction = "install"
	DirectionUpgrade   Direction = "upgrade"
	DirectionDowngrade Direction = "downgrade"
	DirectionChange    Direction = "change"

	defaultMirrorDelay = 2 * time.Second
)

var (
	// ErrNoMirrors is returned by Apply when the mirror list is empty.
	ErrNoMirrors = errors.New("no mirrors configured")
	// ErrMirrorsExhausted is wrapped by MirrorsExhaustedError.
	ErrMirrorsExhausted = errors.New("all mirrors failed")
	// ErrVerifyFailed is wrapped by VerifyError.
	ErrVerifyFailed = errors.New("installed version does not match the published version")
)

type (
	// Direction describes how an update moves the installed version.
	Direction string

	// Settings lists where an update comes from and how it is laid out.
	Settings struct {
		VersionURL   string
		Mirrors      []string
		AuxConfigURL string
		// AuxConfigPath is relative to the game directory, slash-separated.
		AuxConfigPath string
		WrapperDir    string
		SkipFiles     []string
	}

	// Paths are the resolved directories an update works in.
	Paths struct {
		GameDir    string
		InstallDir string
	}

	// Check holds the result of comparing the installed and published versions.
	Check struct {
		LocalVersion    string // empty when nothing is installed
		RemoteVersion   string
		Direction       Direction
		UpdateAvailable bool
		Message         string
	}

	// ApplyOptions tune a single Apply call.
	ApplyOptions struct {
		// Redownload ignores a cached archive.
		Redownload bool
		// KeepArchive leaves the archive in the game directory.
		KeepArchive bool
	}

	// Result describes a finished Apply.
	Result struct {
		Version        string // verified installed version
		Mirror         string
		MirrorIndex    int
		ArchivePath    string
		ArchiveReused  bool
		ArchiveKept    bool
		FilesExtracted int
		FilesMoved     int
		AuxConfigPath  string
		// UpToDate is set when a retry found the published version already
		// installed, so nothing was changed.
		UpToDate bool
	}

	// MirrorError is a download or extraction failure of one mirror.
	MirrorError struct {
		Index int
		URL   string // redacted
		Err   error
	}

	// MirrorsExhaustedError is returned when every mirror failed.
	MirrorsExhaustedError struct {
		Failures []*MirrorError
	}

	// VerifyError is returned when the version read back after installing
	// differs from the published one.
	VerifyError struct {
		Local  string
		Remote string
	}

	// Updater runs version checks and updates for one game installation.
	Updater struct {
		client      *Client
		fs          afero.Fs
		logger      *log.Logger
		progressOut io.Writer
		mirrorDelay time.Duration
		settings    Settings
		paths       Paths
	}

	// UpdaterOption configures an Updater during construction.
	UpdaterOption func(*Updater)
)

// Error implements the error interface.
func (e *MirrorError) Error() string {
	return fmt.Sprintf("mirror %d (%s): %v", e.Index+1, e.URL, e.Err)
}

// Unwrap returns the underlying failure.
func (e *MirrorError) Unwrap() error { return e.Err }

// Error implements the error interface.
func (e *MirrorsExhaustedError) Error() string {
	return fmt.Sprintf("%v after %d attempt(s)", ErrMirrorsExhausted, len(e.Failures))
}

// Unwrap returns ErrMirrorsExhausted followed by every mirror failure.
func (e *MirrorsExhaustedError) Unwrap() []error {
	errs := []error{ErrMirrorsExhausted}
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	return errs
}

// Error implements the error interface.
func (e *VerifyError) Error() string {
	return fmt.Sprintf("%v: installed %q, published %q", ErrVerifyFailed, e.Local, e.Remote)
}

// Unwrap returns ErrVerifyFailed for errors.Is() compatibility.
func (e *VerifyError) Unwrap() error { return ErrVerifyFailed }

// WithClient overrides the default HTTP Client.
func WithClient(c *Client) UpdaterOption {
	return func(u *Updater) {
		u.client = c
	}
}

// WithFs overrides the filesystem, afero.NewOsFs() by default.
func WithFs(fs afero.Fs) UpdaterOption {
	return func(u *Updater) {
		u.fs = fs
	}
}

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(l *log.Logger) UpdaterOption {
	return func(u *Updater) {
		u.logger = l
	}
}

// WithProgressOutput sets where download progress is printed.
func WithProgressOutput(w io.Writer) UpdaterOption {
	return func(u *Updater) {
		u.progressOut = w
	}
}

// WithMirrorDelay sets the pause before trying the next mirror.
func WithMirrorDelay(d time.Duration) UpdaterOption {
	return func(u *Updater) {
		u.mirrorDelay = d
	}
}

// NewUpdater creates an Updater for the given directories and sources.
func NewUpdater(paths Paths, settings Settings, opts ...UpdaterOption) *Updater {
	u := &Updater{
		settings:    settings,
		paths:       paths,
		mirrorDelay: defaultMirrorDelay,
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.client == nil {
		u.client = NewClient()
	}
	if u.fs == nil {
		u.fs = afero.NewOsFs()
	}
	if u.logger == nil {
		u.logger = log.New(io.Discard)
	}
	return u
}

// Check compares the installed version with the published one. Versions are
// equal when their trimmed text is equal; semantic versioning is only used to
// describe the direction of a change.
func (u *Updater) Check(ctx context.Context) (*Check, error) {
	local, err := ReadLocalVersion(u.fs, u.paths.InstallDir, u.paths.GameDir)
	if err != nil {
		return nil, fmt.Errorf("reading installed version: %w", err)
	}

	remote, err := u.fetchRemoteVersion(ctx)
	if err != nil {
		return nil, err
	}

	u.logger.Debug("versions", "local", local, "remote", remote)
	return newCheck(local, remote), nil
}

func newCheck(local, remote string) *Check {
	dir := compareVersions(local, remote)
	return &Check{
		LocalVersion:    local,
		RemoteVersion:   remote,
		Direction:       dir,
		UpdateAvailable: dir != DirectionNone,
		Message:         checkMessage(dir, local, remote),
	}
}

func (u *Updater) fetchRemoteVersion(ctx context.Context) (string, error) {
	remote, err := u.client.FetchText(ctx, u.settings.VersionURL)
	if err != nil {
		return "", fmt.Errorf("fetching published version: %w", err)
	}
	if remote == "" {
		return "", errors.New("fetching published version: version file is empty")
	}
	return remote, nil
}

// Apply installs the version named by check. Each mirror is tried in turn; a
// download or extraction failure discards the archive and restarts the flow
// with the next mirror. Once a package is in place the aux config is written,
// the archive removed and the installed version verified.
func (u *Updater) Apply(ctx context.Context, check *Check, opts ApplyOptions) (*Result, error) {
	if check == nil {
		return nil, errors.New("check must not be nil")
	}
	if len(u.settings.Mirrors) == 0 {
		return nil, ErrNoMirrors
	}

	var (
		res      *Result
		failures []*MirrorError
		attempt  int
		wiped    bool // the install directory has been reset by this Apply
	)
	// Retries compare against the version found before the install directory
	// was touched.
	local := check.LocalVersion

	operation := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}

		i := attempt
		attempt++
		if i > 0 {
			remote, err := u.fetchRemoteVersion(ctx)
			if err != nil {
				return backoff.Permanent(err)
			}
			c := newCheck(local, remote)
			if !c.UpdateAvailable && !wiped {
				res = &Result{Version: local, UpToDate: true}
				return nil
			}
			check = c
		}

		r, err := u.installFrom(ctx, i, check.RemoteVersion, opts, &wiped)
		if err != nil {
			var mirrorErr *MirrorError
			if errors.As(err, &mirrorErr) {
				failures = append(failures, mirrorErr)
				return err
			}
			return backoff.Permanent(err)
		}
		res = r
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(u.mirrorDelay), uint64(len(u.settings.Mirrors)-1)),
		ctx,
	)
	notify := func(err error, wait time.Duration) {
		u.logger.Warn("mirror failed, trying the next one", "err", err, "wait", wait)
	}

	if err := backoff.RetryNotify(operation, policy, notify); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var mirrorErr *MirrorError
		if errors.As(err, &mirrorErr) {
			return nil, &MirrorsExhaustedError{Failures: failures}
		}
		return nil, err
	}
	if res.UpToDate {
		return res, nil
	}

	if err := u.finish(ctx, res, opts); err != nil {
		return res, err
	}
	return res, nil
}

// installFrom fetches the package from mirror i (or reuses a cached archive)
// and unpacks it into the install directory, setting *wiped before the
// directory is reset. Mirror-specific failures are returned as *MirrorError.
func (u *Updater) installFrom(ctx context.Context, i int, version string, opts ApplyOptions, wiped *bool) (*Result, error) {
	mirror := u.settings.Mirrors[i]
	archive := u.archivePath(version)
	res := &Result{Mirror: mirror, MirrorIndex: i, ArchivePath: archive}

	cached := false
	if !opts.Redownload {
		cached, _ = afero.Exists(u.fs, archive) //nolint:errcheck // Treat stat errors as "not cached".
	}

	if cached {
		u.logger.Info("using cached archive, delete it to force a new download", "archive", archive)
		res.ArchiveReused = true
	} else {
		u.logger.Info("downloading package", "mirror", i+1, "url", redactURL(mirror))
		if err := u.download(ctx, i, mirror, archive); err != nil {
			return nil, err
		}
	}

	*wiped = true
	if err := install.Reset(u.fs, u.paths.InstallDir); err != nil {
		return nil, err
	}

	n, err := install.ExtractZip(u.fs, archive, u.paths.InstallDir)
	if err != nil {
		if errors.Is(err, install.ErrBadArchive) {
			if rmErr := install.RemoveArchive(u.fs, archive); rmErr != nil {
				u.logger.Warn("could not remove broken archive", "archive", archive, "err", rmErr)
			}
			return nil, &MirrorError{Index: i, URL: redactURL(mirror), Err: err}
		}
		return nil, err
	}
	res.FilesExtracted = n

	moved, err := install.Relocate(u.fs, u.paths.InstallDir, u.settings.WrapperDir, u.settings.SkipFiles)
	if err != nil {
		return nil, fmt.Errorf("relocating package files: %w", err)
	}
	res.FilesMoved = moved
	u.logger.Debug("package unpacked", "extracted", n, "moved", moved)

	return res, nil
}

// download saves mirror to archive through a ".part" file so an interrupted
// download is never mistaken for a cached archive.
func (u *Updater) download(ctx context.Context, i int, mirror, archive string) error {
	part := archive + ".part"
	f, err := u.fs.Create(part)
	if err != nil {
		return fmt.Errorf("creating %s: %w", part, err)
	}

	_, dlErr := u.client.Download(ctx, mirror, f, NewProgress(u.progressOut, "Downloading"))
	closeErr := f.Close()
	if dlErr == nil {
		dlErr = closeErr
	}
	if dlErr != nil {
		_ = u.fs.Remove(part) // best-effort cleanup of a partial download
		return &MirrorError{Index: i, URL: redactURL(mirror), Err: dlErr}
	}

	if err := install.RemoveArchive(u.fs, archive); err != nil {
		return err
	}
	if err := u.fs.Rename(part, archive); err != nil {
		return fmt.Errorf("saving archive: %w", err)
	}
	return nil
}

// finish writes the aux config, removes the archive and verifies the result.
func (u *Updater) finish(ctx context.Context, res *Result, opts ApplyOptions) error {
	aux, err := u.client.FetchBytes(ctx, u.settings.AuxConfigURL)
	if err != nil {
		return fmt.Errorf("fetching aux config: %w", err)
	}
	auxPath := filepath.Join(u.paths.GameDir, filepath.FromSlash(u.settings.AuxConfigPath))
	if err := install.WriteAuxConfig(u.fs, auxPath, aux); err != nil {
		return err
	}
	res.AuxConfigPath = auxPath

	if opts.KeepArchive {
		res.ArchiveKept = true
	} else if err := install.RemoveArchive(u.fs, res.ArchivePath); err != nil {
		return err
	}

	local, err := ReadLocalVersion(u.fs, u.paths.InstallDir, u.paths.GameDir)
	if err != nil {
		return fmt.Errorf("reading installed version: %w", err)
	}
	remote, err := u.client.FetchText(ctx, u.settings.VersionURL)
	if err != nil {
		return fmt.Errorf("fetching published version: %w", err)
	}
	if local != remote {
		return &VerifyError{Local: local, Remote: remote}
	}

	if err := WriteMarker(u.fs, u.paths.GameDir, local); err != nil {
		return err
	}
	res.Version = local
	return nil
}

// archivePath names the cached archive after the version it holds.
func (u *Updater) archivePath(version string) string {
	return filepath.Join(u.paths.GameDir, platform.SafeFileName(version)+".zip")
}

// compareVersions returns how moving from local to remote changes the version.
func compareVersions(local, remote string) Direction {
	switch {
	case local == remote:
		return DirectionNone
	case local == "":
		return DirectionInstall
	}

	l, r := canonicalVersion(local), canonicalVersion(remote)
	if semver.IsValid(l) && semver.IsValid(r) {
		switch semver.Compare(l, r) {
		case -1:
			return DirectionUpgrade
		case 1:
			return DirectionDowngrade
		}
	}
	return DirectionChange
}

func canonicalVersion(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

func checkMessage(dir Direction, local, remote string) string {
	switch dir {
	case DirectionNone:
		return fmt.Sprintf("Divine UI %s is up to date.", local)
	case DirectionInstall:
		return fmt.Sprintf("Divine UI is not installed. Version %s is available.", remote)
	case DirectionUpgrade:
		return fmt.Sprintf("Update available: %s -> %s", local, remote)
	case DirectionDowngrade:
		return fmt.Sprintf("Published version %s is older than installed %s; it will be reinstalled.", remote, local)
	default:
		return fmt.Sprintf("Installed version %s differs from published %s.", local, remote)
	}
}
