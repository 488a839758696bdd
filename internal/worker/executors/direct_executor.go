package executors

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"judgecore/internal/config"
	"judgecore/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	inputPlaceholder  = "%INPUT%"
	outputPlaceholder = "%OUTPUT%"

	maxInfoLength = 1024
	waitDelay     = 100 * time.Millisecond
)

// DirectExecutor compiles and runs submissions as plain child processes of
// the worker. It enforces time limits only; memory limits are reported but
// not enforced.
type DirectExecutor struct {
	catalog        *config.Catalog
	baseDir        string
	compileTimeout time.Duration
}

func NewDirectExecutor(catalog *config.Catalog, baseDir string, compileTimeout time.Duration) *DirectExecutor {
	if compileTimeout <= 0 {
		compileTimeout = time.Minute
	}
	return &DirectExecutor{
		catalog:        catalog,
		baseDir:        baseDir,
		compileTimeout: compileTimeout,
	}
}

func (de *DirectExecutor) Execute(ctx context.Context, req *models.ExecutionRequest) (*models.ExecutionResult, error) {
	problem, ok := de.catalog.Problem(req.ProblemID)
	if !ok {
		return nil, fmt.Errorf("problem %d not in catalog", req.ProblemID)
	}
	language, ok := de.catalog.Language(req.Language)
	if !ok {
		return nil, fmt.Errorf("language %s not in catalog", req.Language)
	}

	execDir := filepath.Join(de.baseDir, fmt.Sprintf("job-%d-%d-%s", req.JobID, req.Generation, uuid.New().String()[:8]))
	if err := os.MkdirAll(execDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create execution directory: %w", err)
	}
	defer os.RemoveAll(execDir)

	result := &models.ExecutionResult{
		JobID:      req.JobID,
		Generation: req.Generation,
		Result:     models.JobResultAccepted,
		Cases:      models.WaitingCases(len(problem.Cases)),
	}

	executable, compileCase, err := de.compile(ctx, req, language, execDir)
	if err != nil {
		return nil, err
	}
	result.Cases[0] = compileCase
	if compileCase.Result != models.JobResultCompilationSuccess {
		result.Result = compileCase.Result
		return result, nil
	}

	for i, testCase := range problem.Cases {
		caseResult, err := de.runCase(ctx, problem.Type, testCase, executable, execDir)
		if err != nil {
			return nil, fmt.Errorf("failed to run case %d: %w", i+1, err)
		}
		caseResult.ID = uint32(i + 1)
		result.Cases[i+1] = caseResult

		if caseResult.Result == models.JobResultAccepted {
			result.Score += testCase.Score
		} else if result.Result == models.JobResultAccepted {
			result.Result = caseResult.Result
		}
	}

	return result, nil
}

// compile runs the language command with the source file as %INPUT% and the
// executable path as %OUTPUT%.
func (de *DirectExecutor) compile(ctx context.Context, req *models.ExecutionRequest, language *config.Language, execDir string) (string, models.CaseResult, error) {
	fileName := language.FileName
	if fileName == "" {
		fileName = "main"
	}
	sourceFile := filepath.Join(execDir, fileName)
	if err := os.WriteFile(sourceFile, []byte(req.SourceCode), 0755); err != nil {
		return "", models.CaseResult{}, fmt.Errorf("failed to write source file: %w", err)
	}
	executable := filepath.Join(execDir, "solution")

	args := make([]string, len(language.Command))
	for i, arg := range language.Command {
		arg = strings.ReplaceAll(arg, inputPlaceholder, sourceFile)
		args[i] = strings.ReplaceAll(arg, outputPlaceholder, executable)
	}

	compileCtx, cancel := context.WithTimeout(ctx, de.compileTimeout)
	defer cancel()

	cmd := exec.CommandContext(compileCtx, args[0], args[1:]...)
	cmd.Dir = execDir
	cmd.WaitDelay = waitDelay

	start := time.Now()
	output, err := cmd.CombinedOutput()
	elapsed := time.Since(start)

	caseResult := models.CaseResult{ID: 0, Time: uint64(elapsed.Microseconds())}
	if err != nil {
		// a job timeout or shutdown is not the submission's fault
		if ctx.Err() != nil {
			return "", models.CaseResult{}, fmt.Errorf("compilation interrupted: %w", ctx.Err())
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) && compileCtx.Err() == nil {
			return "", models.CaseResult{}, fmt.Errorf("failed to start compiler: %w", err)
		}
		logrus.WithFields(logrus.Fields{"job_id": req.JobID}).Debug("Compilation failed")
		caseResult.Result = models.JobResultCompilationError
		caseResult.Info = truncate(string(output))
		return "", caseResult, nil
	}

	caseResult.Result = models.JobResultCompilationSuccess
	return executable, caseResult, nil
}

func (de *DirectExecutor) runCase(ctx context.Context, problemType config.ProblemType, testCase config.Case, executable, execDir string) (models.CaseResult, error) {
	input, err := os.Open(testCase.InputFile)
	if err != nil {
		return models.CaseResult{}, fmt.Errorf("failed to open input: %w", err)
	}
	defer input.Close()

	answer, err := os.ReadFile(testCase.AnswerFile)
	if err != nil {
		return models.CaseResult{}, fmt.Errorf("failed to read answer: %w", err)
	}

	runCtx := ctx
	if testCase.TimeLimit > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, time.Duration(testCase.TimeLimit)*time.Microsecond)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, executable)
	cmd.Dir = execDir
	cmd.Stdin = input
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	start := time.Now()
	err = cmd.Run()
	elapsed := time.Since(start)

	caseResult := models.CaseResult{Time: uint64(elapsed.Microseconds())}

	switch {
	case runCtx.Err() == context.DeadlineExceeded:
		caseResult.Result = models.JobResultTimeLimitExceeded
	case err != nil:
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return models.CaseResult{}, fmt.Errorf("failed to start process: %w", err)
		}
		caseResult.Result = models.JobResultRuntimeError
		caseResult.Info = truncate(stderr.String())
	case CompareOutput(problemType, stdout.String(), string(answer)):
		caseResult.Result = models.JobResultAccepted
	default:
		caseResult.Result = models.JobResultWrongAnswer
	}

	return caseResult, nil
}

// CompareOutput reports whether output matches answer. Strict problems
// compare bytes; standard problems ignore trailing whitespace on each line
// and trailing blank lines.
func CompareOutput(problemType config.ProblemType, output, answer string) bool {
	if problemType == config.ProblemTypeStrict {
		return output == answer
	}
	return normalizeLines(output) == normalizeLines(answer)
}

func normalizeLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\r")
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

func truncate(s string) string {
	if len(s) > maxInfoLength {
		return s[:maxInfoLength]
	}
	return s
}
