package api

import (
	"github.com/actionc/actionc/internal/js_ast"
	"github.com/actionc/actionc/internal/js_parser"
	"github.com/actionc/actionc/internal/js_printer"
	"github.com/actionc/actionc/internal/logger"
	"github.com/actionc/actionc/internal/server_actions"
)

func validateLogLevel(value LogLevel) logger.LogLevel {
	switch value {
	case LogLevelInfo:
		return logger.LevelInfo
	case LogLevelWarning:
		return logger.LevelWarning
	case LogLevelError:
		return logger.LevelError
	default:
		return logger.LevelSilent
	}
}

func validateColor(value StderrColor) logger.StderrColor {
	switch value {
	case ColorNever:
		return logger.ColorNever
	case ColorAlways:
		return logger.ColorAlways
	default:
		return logger.ColorIfTerminal
	}
}

func convertMessages(msgs []logger.Msg, kind logger.MsgKind) []Message {
	var filtered []Message
	for _, msg := range msgs {
		if msg.Kind != kind {
			continue
		}
		converted := Message{Text: msg.Text}
		if msg.Location != nil {
			converted.Location = &Location{
				File:     msg.Location.File,
				Line:     msg.Location.Line,
				Column:   msg.Location.Column,
				Length:   msg.Location.Length,
				LineText: msg.Location.LineText,
			}
		}
		filtered = append(filtered, converted)
	}
	return filtered
}

func transformImpl(options TransformOptions) TransformResult {
	var log logger.Log
	if options.LogLevel == LogLevelSilent {
		log = logger.NewDeferLog()
	} else {
		log = logger.NewStderrLog(logger.StderrOptions{
			IncludeSource: true,
			ErrorLimit:    options.ErrorLimit,
			Color:         validateColor(options.Color),
			LogLevel:      validateLogLevel(options.LogLevel),
		})
	}

	prettyPath := options.Sourcefile
	if prettyPath == "" {
		prettyPath = "<stdin>"
	}
	source := logger.Source{
		Index:          0,
		PrettyPath:     prettyPath,
		IdentifierName: js_ast.GenerateNonUniqueNameFromPath(prettyPath),
		Contents:       options.Contents,
	}

	var result TransformResult
	tree, ok := js_parser.Parse(log, source)
	if ok {
		transformed := server_actions.Transform(log, source, &tree, server_actions.Config{
			IsServer: options.IsServer,
		})
		result.HasAction = transformed.HasAction
		for _, action := range transformed.Actions {
			result.Actions = append(result.Actions, Action{Name: action.Name, ID: action.ID})
		}
		result.Code = string(js_printer.Print(tree, js_printer.Options{}).JS)
	}

	msgs := log.Done()
	result.Errors = convertMessages(msgs, logger.Error)
	result.Warnings = convertMessages(msgs, logger.Warning)
	return result
}

// ActionID exposes the action identifier digest so integrators can compute
// the id for a (file, export) pair without running the transform.
func ActionID(sourcefile string, exportName string) string {
	return server_actions.ActionID(sourcefile, exportName)
}
