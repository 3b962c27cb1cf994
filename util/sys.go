package util

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/carusyte/stockpred/conf"
	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/cpu"
	"github.com/ssgreg/repeat"
)

//CPUUsage returns current cpu busy percentage.
func CPUUsage() (busy float64, e error) {
	var ps []float64
	ps, e = cpu.Percent(0, false)
	if e != nil {
		return
	}
	if len(ps) == 0 {
		return 0, errors.New("no cpu usage reported")
	}
	return ps[0], e
}

//WaitCPU blocks while cpu usage is above threshold, polling at the given interval
//for at most maxWait. A threshold <= 0 or >= 100 disables waiting.
func WaitCPU(threshold float64, interval, maxWait time.Duration) {
	if threshold <= 0 || threshold >= 100 {
		return
	}
	deadline := time.Now().Add(maxWait)
	for time.Now().Before(deadline) {
		u, e := CPUUsage()
		if e != nil || u <= threshold {
			return
		}
		log.Debugf("cpu usage %.1f%% above threshold %.1f%%, waiting", u, threshold)
		time.Sleep(interval)
	}
}

//MkDirAll similar to os.MkDirAll, but with retry when failed.
func MkDirAll(path string, perm os.FileMode) (e error) {
	op := func(c int) error {
		if e = os.MkdirAll(path, perm); e != nil {
			return repeat.HintTemporary(e)
		}
		return nil
	}
	e = repeat.Repeat(
		repeat.FnWithCounter(op),
		repeat.StopOnSuccess(),
		repeat.LimitMaxTries(conf.Args.DefaultRetry),
		repeat.WithDelay(
			repeat.FullJitterBackoff(500*time.Millisecond).WithMaxDelay(10*time.Second).Set(),
		),
	)
	return errors.WithStack(e)
}

//FileExists checks whether the file exists.
func FileExists(path string) (exists bool, e error) {
	_, e = os.Stat(path)
	if e == nil {
		return true, nil
	}
	if os.IsNotExist(e) {
		return false, nil
	}
	return false, errors.WithStack(e)
}

//LatestFile returns the most recently modified regular file in dir whose name
//matches pattern. An empty result without error means nothing matched.
func LatestFile(dir, pattern string) (path string, e error) {
	re, e := regexp.Compile(pattern)
	if e != nil {
		return "", errors.WithStack(e)
	}
	entries, e := os.ReadDir(dir)
	if e != nil {
		return "", errors.WithStack(e)
	}
	var latest time.Time
	for _, d := range entries {
		if d.IsDir() || !re.MatchString(d.Name()) {
			continue
		}
		fi, err := d.Info()
		if err != nil {
			log.Warnf("failed to stat %s: %+v", d.Name(), err)
			continue
		}
		if path == "" || fi.ModTime().After(latest) {
			latest = fi.ModTime()
			path = filepath.Join(dir, d.Name())
		}
	}
	return
}

//AppendLine appends a line of text to path, creating the file when absent.
func AppendLine(path, line string) error {
	if e := MkDirAll(filepath.Dir(path), 0755); e != nil {
		return e
	}
	f, e := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if e != nil {
		return errors.WithStack(e)
	}
	defer f.Close()
	_, e = fmt.Fprintln(f, line)
	return errors.WithStack(e)
}

//WriteJSONFile writes the payload as indented json. It first writes to a *.tmp
//file, then renames it to the final path, replacing any existing file.
func WriteJSONFile(payload interface{}, path string) (e error) {
	jsonBytes, e := json.MarshalIndent(payload, "", "  ")
	if e != nil {
		return errors.Wrapf(e, "failed to marshal payload %+v", payload)
	}
	if e = MkDirAll(filepath.Dir(path), 0755); e != nil {
		return e
	}
	op := func(c int) error {
		if c > 0 {
			log.Printf("#%d retrying to write json file to %s...", c, path)
		}
		tmp := fmt.Sprintf("%s.tmp", path)
		if _, err := bufferedWrite(tmp, jsonBytes); err != nil {
			log.Printf("#%d %+v", c, err)
			return repeat.HintTemporary(err)
		}
		if err := os.Rename(tmp, path); err != nil {
			log.Printf("#%d failed to rename %s to %s: %+v", c, tmp, path, err)
			return repeat.HintTemporary(err)
		}
		return nil
	}

	e = repeat.Repeat(
		repeat.FnWithCounter(op),
		repeat.StopOnSuccess(),
		repeat.LimitMaxTries(conf.Args.DefaultRetry),
		repeat.WithDelay(
			repeat.FullJitterBackoff(500*time.Millisecond).WithMaxDelay(15*time.Second).Set(),
		),
	)
	return errors.WithStack(e)
}

func bufferedWrite(path string, data []byte) (nn int, e error) {
	var wt io.WriteCloser
	wt, e = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if e != nil {
		return nn, errors.WithMessage(errors.WithStack(e), fmt.Sprintf("failed to create file %s", path))
	}
	bw := bufio.NewWriter(wt)
	nn, e = bw.Write(data)
	if e == nil {
		e = bw.Flush()
	}
	if ce := wt.Close(); e == nil {
		e = ce
	}
	if e != nil {
		os.Remove(path)
		return nn, errors.WithMessage(errors.WithStack(e), fmt.Sprintf("failed to write bytes to %s", path))
	}
	return
}
