package commonGo

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/multiversx/mx-chain-logger-go/file"
)

// AttachFileLogger attaches, if required, a log file
func AttachFileLogger(
	log logger.Logger,
	defaultLogsPath string,
	logFilePrefix string,
	saveLogFile bool,
	workingDir string) (FileLoggingHandler, error) {
	var err error
	var logFile FileLoggingHandler
	if saveLogFile {
		argsFileLogging := file.ArgsFileLogging{
			WorkingDir:      workingDir,
			DefaultLogsPath: defaultLogsPath,
			LogFilePrefix:   logFilePrefix,
		}
		logFile, err = file.NewFileLogging(argsFileLogging)
		if err != nil {
			return nil, fmt.Errorf("%w creating a log file", err)
		}
	}

	err = logger.SetDisplayByteSlice(logger.ToHex)
	log.LogIfError(err)

	return logFile, nil
}

// ReadEnvFile will read the file contents in the provided map
func ReadEnvFile(envFile string, m map[string]string) error {
	err := godotenv.Load(envFile)
	if err != nil {
		return err
	}

	for k := range m {
		val := os.Getenv(k)
		if len(val) == 0 {
			return fmt.Errorf("%s is not set in the .env file", k)
		}

		m[k] = val
	}

	return nil
}

// CronJob is the handle of a repeating task started with StartCronJob
type CronJob struct {
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// StartCronJob starts a go routine that calls the handler once immediately and then every timeToCall.
// The returned handle stops the routine; the routine also stops when the parent context is done.
func StartCronJob(ctx context.Context, handler func(ctx context.Context), timeToCall time.Duration) *CronJob {
	jobCtx, cancel := context.WithCancel(ctx)
	job := &CronJob{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(job.done)

		timer := time.NewTimer(timeToCall)
		defer timer.Stop()

		handler(jobCtx)

		for {
			select {
			case <-timer.C:
				handler(jobCtx)
				timer.Reset(timeToCall)
			case <-jobCtx.Done():
				return
			}
		}
	}()

	return job
}

// Stop cancels the repeating task and waits for the running handler, if any, to return
func (job *CronJob) Stop() {
	job.stopOnce.Do(job.cancel)
	<-job.done
}

// Done returns a channel closed once the repeating task exited
func (job *CronJob) Done() <-chan struct{} {
	return job.done
}
