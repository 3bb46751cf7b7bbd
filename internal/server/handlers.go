package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ccollicutt/probeplot/pkg/accuracy"
	"github.com/ccollicutt/probeplot/pkg/logfile"
	"github.com/ccollicutt/probeplot/pkg/output"
	"github.com/ccollicutt/probeplot/pkg/probelog"
	"github.com/ccollicutt/probeplot/pkg/render"
)

// UploadField is the multipart field that carries the log file.
const UploadField = "log_file"

var errMissingLog = errors.New("request has no log content")

// readLog extracts the uploaded log from a multipart form or the raw body.
func (s *Server) readLog(c *gin.Context) (*logfile.Log, int, error) {
	limit := int64(s.cfg.Server.MaxUploadSize)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	name := "upload.log"
	var text string

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile(UploadField)
		if err != nil {
			if tooLarge(err) {
				return nil, http.StatusRequestEntityTooLarge, err
			}
			return nil, http.StatusBadRequest, fmt.Errorf("reading %s: %w", UploadField, err)
		}
		f, err := fh.Open()
		if err != nil {
			return nil, http.StatusBadRequest, fmt.Errorf("opening %s: %w", UploadField, err)
		}
		defer f.Close()

		name = fh.Filename
		text, err = logfile.Read(f, limit)
		if err != nil {
			if tooLarge(err) {
				return nil, http.StatusRequestEntityTooLarge, err
			}
			return nil, http.StatusBadRequest, err
		}
	} else {
		var err error
		text, err = logfile.Read(c.Request.Body, limit)
		if err != nil {
			if tooLarge(err) {
				return nil, http.StatusRequestEntityTooLarge, err
			}
			return nil, http.StatusBadRequest, err
		}
	}

	if text == "" {
		return nil, http.StatusBadRequest, errMissingLog
	}

	return &logfile.Log{Name: name, Size: int64(len(text)), Text: text}, http.StatusOK, nil
}

func tooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) ||
		errors.Is(err, logfile.ErrTooLarge) ||
		strings.Contains(err.Error(), "request body too large")
}

func (s *Server) handleParse(c *gin.Context) {
	start := time.Now()

	format := c.DefaultQuery("format", "json")
	if format != "json" && format != "highcharts" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be json or highcharts"})
		return
	}

	strict := s.cfg.Parser.Strict
	if v := c.Query("strict"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid strict parameter"})
			return
		}
		strict = parsed
	}

	log, status, err := s.readLog(c)
	if err != nil {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	in := probelog.Inspect(log.Text)
	s.metrics.ObserveInspection(in)

	if strict && len(in.Malformed) > 0 {
		lerr := in.Malformed[0]
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": lerr.Error(),
			"line":  lerr.Line,
			"kind":  lerr.Kind,
			"field": lerr.Field,
		})
		return
	}

	res := in.Result
	acc := accuracy.New(accuracy.WithMaxRange(s.cfg.Accuracy.MaxRange)).Analyze(res)
	report := output.NewReport(log, res, acc)
	report.Metadata.Duration = time.Since(start)

	s.logger.Debug("parsed upload",
		"name", log.Name,
		"size", log.HumanSize(),
		"samples", len(res.Samples),
		"runs", len(res.Runs),
		"malformed", len(in.Malformed),
		"request_id", c.GetString(requestIDKey))

	if format == "highcharts" {
		hc := output.NewHighchartsFormatter(output.FormatOptions{
			Title:      s.cfg.Chart.Title,
			BandColors: s.cfg.Chart.BandColors,
		})
		c.JSON(http.StatusOK, hc.Options(res))
	} else {
		c.JSON(http.StatusOK, report)
	}

	s.dispatchWebhooks(c, report)
}

// dispatchWebhooks delivers the report after the response has been written.
// The request context is detached so delivery survives the client going away;
// each send is still bounded by its webhook timeout.
func (s *Server) dispatchWebhooks(c *gin.Context, report *output.Report) {
	if len(s.cfg.Webhooks) == 0 {
		return
	}

	ctx := context.WithoutCancel(c.Request.Context())
	s.deliveries.Add(1)
	go func() {
		defer s.deliveries.Done()
		s.hooks.Dispatch(ctx, report, s.cfg.Webhooks)
	}()
}

func (s *Server) handleRender(c *gin.Context) {
	format, err := render.ParseFormat(c.DefaultQuery("format", "png"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts := render.Options{
		Width:      s.cfg.Chart.Width,
		Height:     s.cfg.Chart.Height,
		Format:     format,
		Title:      c.DefaultQuery("title", s.cfg.Chart.Title),
		BandColors: s.cfg.Chart.BandColors,
	}
	for param, dst := range map[string]*int{"width": &opts.Width, "height": &opts.Height} {
		v := c.Query(param)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + param})
			return
		}
		*dst = n
	}

	log, status, err := s.readLog(c)
	if err != nil {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	in := probelog.Inspect(log.Text)
	s.metrics.ObserveInspection(in)

	var buf bytes.Buffer
	if err := render.Render(&buf, in.Result, opts); err != nil {
		if errors.Is(err, render.ErrNoSamples) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		s.logger.Error("render failed", "error", err, "request_id", c.GetString(requestIDKey))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "rendering chart failed"})
		return
	}

	s.metrics.chartsRendered.WithLabelValues(string(format)).Inc()
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}
