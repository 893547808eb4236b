package logging

import (
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const fileTimeLayout = "2006-01-02 15:04:05"

var linePool = buffer.NewPool()

// lineEncoder renders "[LEVEL] name: message" lines, optionally prefixed with
// a timestamp and a tab. Context fields are kept by the embedded JSON encoder
// and appended as one compact object.
type lineEncoder struct {
	zapcore.Encoder
	withTime bool
}

func newFileEncoder() zapcore.Encoder {
	return &lineEncoder{Encoder: zapcore.NewJSONEncoder(fieldEncoderConfig()), withTime: true}
}

func newConsoleEncoder() zapcore.Encoder {
	return &lineEncoder{Encoder: zapcore.NewJSONEncoder(fieldEncoderConfig())}
}

// fieldEncoderConfig leaves every entry key empty so the JSON encoder only
// emits context fields.
func fieldEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		SkipLineEnding: true,
	}
}

func (e *lineEncoder) Clone() zapcore.Encoder {
	return &lineEncoder{Encoder: e.Encoder.Clone(), withTime: e.withTime}
}

func (e *lineEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	line := linePool.Get()
	if e.withTime {
		line.AppendTime(ent.Time, fileTimeLayout)
		line.AppendByte('\t')
	}
	line.AppendByte('[')
	line.AppendString(LevelName(ent.Level))
	line.AppendString("] ")
	line.AppendString(loggerName(ent.LoggerName))
	line.AppendString(": ")
	line.AppendString(ent.Message)

	context, err := e.Encoder.EncodeEntry(zapcore.Entry{}, fields)
	if err != nil {
		line.Free()
		return nil, err
	}
	// "{}" means no fields.
	if context.Len() > 2 {
		line.AppendByte(' ')
		_, _ = line.Write(context.Bytes())
	}
	context.Free()

	if ent.Stack != "" {
		line.AppendByte('\n')
		line.AppendString(ent.Stack)
	}
	line.AppendByte('\n')
	return line, nil
}

func loggerName(name string) string {
	if name == "" {
		return rootLoggerName
	}
	return name
}
