// SPDX-License-Identifier: MPL-2.0

package sign

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/powerforge/powerforge/internal/execx"
	"github.com/powerforge/powerforge/internal/pwsh"
)

// ErrNothingToSign is returned when no payload file matches the include
// patterns.
var ErrNothingToSign = errors.New("no files match the signing include patterns")

// ErrNoIdentity is returned when neither a certificate path nor a
// thumbprint is configured.
var ErrNoIdentity = errors.New("no signing identity: set a certificate path or a thumbprint")

type (
	// Options selects the signing identity and scope.
	Options struct {
		// CertificatePath is a PFX/PEM certificate file.
		CertificatePath string
		// Thumbprint selects a certificate from the user store instead.
		Thumbprint string
		// TimestampServer is the RFC 3161 timestamp URL. Empty skips
		// timestamping.
		TimestampServer string
		// Include lists glob patterns of file names to sign.
		Include []string
	}

	// FileStatus is the signature state of one file.
	FileStatus struct {
		Path    string `json:"Path"`
		Status  string `json:"Status"`
		Message string `json:"Message"`
	}

	// SignFailedError lists the files whose signature did not come back
	// valid.
	SignFailedError struct {
		Failures []FileStatus
	}

	// Signer signs payload files. The PowerShell bridge is the default;
	// a resolved signtool takes over when present and a certificate file
	// is configured.
	Signer struct {
		Shell    *pwsh.Shell
		Signtool *execx.Tool
	}
)

func (e *SignFailedError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("%s (%s)", f.Path, f.Status)
	}
	return fmt.Sprintf("signing failed for %d file(s): %s", len(e.Failures), strings.Join(parts, ", "))
}

// CollectFiles walks root and returns the files whose base name matches
// any include pattern, sorted for stable signing order.
func CollectFiles(root string, include []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		for _, pattern := range include {
			if ok, _ := filepath.Match(pattern, base); ok {
				files = append(files, path)
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to collect files to sign: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// Sign signs every matching file under root and returns the per-file
// status. A file whose resulting status is not Valid fails the whole
// operation via SignFailedError.
func (s *Signer) Sign(ctx context.Context, root string, opts Options) ([]FileStatus, error) {
	if opts.CertificatePath == "" && opts.Thumbprint == "" {
		return nil, ErrNoIdentity
	}

	files, err := CollectFiles(root, opts.Include)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNothingToSign
	}

	if s.Signtool != nil && opts.CertificatePath != "" {
		return s.signWithSigntool(ctx, files, opts)
	}
	return s.signWithPwsh(ctx, files, opts)
}

func (s *Signer) signWithPwsh(ctx context.Context, files []string, opts Options) ([]FileStatus, error) {
	script := certScript(opts) + "\n" + fileListScript(files) + ` | ForEach-Object {
  $r = Set-AuthenticodeSignature -FilePath $_ -Certificate $cert` + timestampArg(opts) + `
  [pscustomobject]@{ Path = $_; Status = $r.Status.ToString(); Message = $r.StatusMessage }
}`

	var statuses []FileStatus
	if err := pwsh.RunJSONList(ctx, s.Shell, script, "", &statuses); err != nil {
		return nil, fmt.Errorf("signing failed: %w", err)
	}
	return statuses, checkStatuses(statuses)
}

func (s *Signer) signWithSigntool(ctx context.Context, files []string, opts Options) ([]FileStatus, error) {
	inv := &execx.Invocation{
		Tool: s.Signtool,
		Args: SigntoolArgs(files, opts),
	}
	res := inv.Capture(ctx)
	if res.Error != nil {
		return nil, res.Error
	}

	statuses := make([]FileStatus, len(files))
	for i, f := range files {
		status := "Valid"
		if !res.ExitCode.IsSuccess() {
			status = "Failed"
		}
		statuses[i] = FileStatus{Path: f, Status: status, Message: firstLine(res.ErrOutput)}
	}
	return statuses, checkStatuses(statuses)
}

// SigntoolArgs assembles the signtool command line for the given files.
func SigntoolArgs(files []string, opts Options) []string {
	args := []string{"sign", "/f", opts.CertificatePath, "/fd", "sha256"}
	if opts.TimestampServer != "" {
		args = append(args, "/tr", opts.TimestampServer, "/td", "sha256")
	}
	return append(args, files...)
}

// Verify reports the signature status of every matching file under root
// without failing on unsigned files; callers decide what an acceptable
// status is.
func (s *Signer) Verify(ctx context.Context, root string, include []string) ([]FileStatus, error) {
	files, err := CollectFiles(root, include)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}

	script := fileListScript(files) + ` | ForEach-Object {
  $r = Get-AuthenticodeSignature -FilePath $_
  [pscustomobject]@{ Path = $_; Status = $r.Status.ToString(); Message = $r.StatusMessage }
}`

	var statuses []FileStatus
	if err := pwsh.RunJSONList(ctx, s.Shell, script, "", &statuses); err != nil {
		return nil, fmt.Errorf("signature verification failed: %w", err)
	}
	return statuses, nil
}

// certScript loads the signing certificate into $cert.
func certScript(opts Options) string {
	if opts.CertificatePath != "" {
		return fmt.Sprintf("$cert = Get-PfxCertificate -FilePath %s", pwsh.Quote(opts.CertificatePath))
	}
	return fmt.Sprintf(
		"$cert = Get-ChildItem Cert:\\CurrentUser\\My | Where-Object Thumbprint -eq %s | Select-Object -First 1\n"+
			"if (-not $cert) { throw 'certificate not found in store' }",
		pwsh.Quote(opts.Thumbprint))
}

func timestampArg(opts Options) string {
	if opts.TimestampServer == "" {
		return ""
	}
	return " -TimestampServer " + pwsh.Quote(opts.TimestampServer)
}

// fileListScript renders the files as a PowerShell array literal.
func fileListScript(files []string) string {
	quoted := make([]string, len(files))
	for i, f := range files {
		quoted[i] = pwsh.Quote(f)
	}
	return "@(" + strings.Join(quoted, ", ") + ")"
}

func checkStatuses(statuses []FileStatus) error {
	var failures []FileStatus
	for _, st := range statuses {
		if st.Status != "Valid" {
			failures = append(failures, st)
		}
	}
	if len(failures) > 0 {
		return &SignFailedError{Failures: failures}
	}
	return nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
