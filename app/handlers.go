package app

import (
	gcmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-errors"

	cvcmd "github.com/goliatone/go-cvwizard/command"
	"github.com/goliatone/go-cvwizard/cv"
	cvqry "github.com/goliatone/go-cvwizard/query"
)

// HandlerOptions customizes handler wiring.
type HandlerOptions struct {
	// KnownTemplate rejects template selections it reports as unknown.
	KnownTemplate func(name string) bool
}

// RegisterHandlers wires the session commands and queries to go-command.
func RegisterHandlers(reg *gcmd.Registry, session *cv.Session, opts HandlerOptions) ([]dispatcher.Subscription, error) {
	if session == nil {
		return nil, errors.New("cv session is required", errors.CategoryValidation).
			WithTextCode("SESSION_REQUIRED")
	}

	setField := cvcmd.NewSetFieldHandler(session)
	appendEdu := cvcmd.NewAppendEducationHandler(session)
	appendExp := cvcmd.NewAppendExperienceHandler(session)
	removeEdu := cvcmd.NewRemoveEducationHandler(session)
	removeExp := cvcmd.NewRemoveExperienceHandler(session)
	reset := cvcmd.NewResetProfileHandler(session)
	next := cvcmd.NewNextStepHandler(session)
	previous := cvcmd.NewPreviousStepHandler(session)
	jump := cvcmd.NewJumpToStepHandler(session)
	selectTemplate := cvcmd.NewSelectTemplateHandler(session, opts.KnownTemplate)
	export := cvcmd.NewExportDocumentHandler(session)
	connectivity := cvcmd.NewConnectivityChangedHandler(session)

	current := cvqry.NewCurrentStepHandler(session)
	snapshot := cvqry.NewProfileSnapshotHandler(session)
	render := cvqry.NewRenderDocumentHandler(session)
	settings := cvqry.NewExportSettingsHandler(session)
	history := cvqry.NewExportHistoryHandler(session)

	subscriptions := []dispatcher.Subscription{
		dispatcher.SubscribeCommand(setField),
		dispatcher.SubscribeCommand(appendEdu),
		dispatcher.SubscribeCommand(appendExp),
		dispatcher.SubscribeCommand(removeEdu),
		dispatcher.SubscribeCommand(removeExp),
		dispatcher.SubscribeCommand(reset),
		dispatcher.SubscribeCommand(next),
		dispatcher.SubscribeCommand(previous),
		dispatcher.SubscribeCommand(jump),
		dispatcher.SubscribeCommand(selectTemplate),
		dispatcher.SubscribeCommand(export),
		dispatcher.SubscribeCommand(connectivity),
		dispatcher.SubscribeQuery(current),
		dispatcher.SubscribeQuery(snapshot),
		dispatcher.SubscribeQuery(render),
		dispatcher.SubscribeQuery(settings),
		dispatcher.SubscribeQuery(history),
	}

	if reg != nil {
		handlers := []any{
			setField,
			appendEdu,
			appendExp,
			removeEdu,
			removeExp,
			reset,
			next,
			previous,
			jump,
			selectTemplate,
			export,
			connectivity,
			current,
			snapshot,
			render,
			settings,
			history,
		}
		for _, handler := range handlers {
			if err := reg.RegisterCommand(handler); err != nil {
				return subscriptions, err
			}
		}
	}

	return subscriptions, nil
}
