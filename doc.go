/*
Package formsg renders the validation errors of a form control as display
text, and decides when that text should be shown.

A View observes one control, the form that hosts it and a message
configuration, and keeps a Model up to date: whether messages are visible and
the ordered texts to display. Controls report their errors as an ordered set
of kinds with payloads; a Config maps each kind to a text producer, and the
built-in defaults cover the well-known kinds.

# Basic Usage

Bind a control and read the model:

	name := formsg.NewField("", formsg.Required(), formsg.MinLength(3))
	form := formsg.NewFormState()

	view := formsg.NewView(
	    formsg.WithControl(name),
	    formsg.WithForm(form),
	    formsg.WithWhen(formsg.WhenTouched),
	)
	defer view.Close()

	view.Subscribe(func(m formsg.Model) {
	    fmt.Println(m.String())
	})

	name.Blur()   // touched: "Field is required"
	name.Input("ab") // "Field must be longer than 3 characters"

Controls that only report changes of status can be adapted with Track, which
publishes touched and dirty changes from the mark operations. Tracking the
same control again returns the same wrapper; Untrack releases it.

# When Policies

	WhenTouched  messages appear after the control is touched (default)
	WhenDirty    messages appear after the control is edited
	WhenAlways   messages appear whenever errors exist

Submitting the host form reveals messages under every policy. A control whose
asynchronous validation is pending never shows messages.

# Message Configuration

Start resolves the configuration from a Provider. Static, Deferred and
Stream cover immediate, one-shot asynchronous and live sources; FromWatcher
decodes catalogs observed by a Watcher:

	view := formsg.NewView(
	    formsg.WithProvider(formsg.FromWatcher(
	        formsg.NewFileWatcher("messages.yaml"), formsg.YAMLCodec{},
	    )),
	)
	if err := view.Start(ctx); err != nil {
	    // defaults are in effect
	}

Catalog entries are text/template strings over the error payload:

	messages:
	  required: "Please fill in this field"
	  minlength: "Use at least {{.requiredLength}} characters"

A configuration only needs the kinds it changes; every well-known kind it
omits keeps its built-in text. A source that fails leaves the defaults in
effect and is reported through Resolver.LastError and the SnapshotFailed
signal.

Individual texts can be replaced without touching the configuration:

	remove := view.Overrides().Register(formsg.KindRequired, "Name is required")
	defer remove()

# Observability

The package emits capitan signals for resolver lifecycle, snapshot outcomes,
bindings, renders and missing messages. Hook them to log or trace:

	capitan.Hook(formsg.MessageMissing, func(ctx context.Context, e *capitan.Event) {
	    kind, _ := formsg.KeyKind.From(e)
	    log.Printf("no message for %s", kind)
	})

MetricsProvider receives resolution and render counts for dashboards.
*/
package formsg
