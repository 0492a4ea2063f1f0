// Copyright (c) 2022 EPAM Systems, Inc.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package deployment

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/epam/wlsctl/cmd/wlsctl/config"
	"github.com/epam/wlsctl/cmd/wlsctl/util"
	"github.com/epam/wlsctl/cmd/wlsctl/weblogic"
)

// Session is an administrative session with the domain admin server.
type Session interface {
	Connect(ctx context.Context, username, password, url string) error
	// DeployDefault deploys the application the session was opened for.
	DeployDefault(ctx context.Context) error
	Deploy(ctx context.Context, app weblogic.Application) error
	Activate(ctx context.Context, app weblogic.Application) error
	Disconnect(ctx context.Context) error
	DumpStack() string
}

// SessionFactory opens a session bound to the application to deploy.
type SessionFactory func(app weblogic.Application) Session

type Request struct {
	Properties *Properties
	Variant    Variant
	WorkDir    string
}

type State int

const (
	Start State = iota
	ConfigReady
	Decoded
	Connected
	Deployed
	Activated
	Disconnected
	ExitOk
	ExitFailConfig
	ExitFailGeneric
)

var stateNames = []string{
	"START", "CONFIG_READY", "DECODED", "CONNECTED", "DEPLOYED", "ACTIVATED", "DISCONNECTED",
	"EXIT_OK", "EXIT_FAIL_CONFIG", "EXIT_FAIL_GENERIC",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// Result of a deployment run. State is the last state reached, Outcome is
// one of the exit states.
type Result struct {
	ID       string
	Plan     *Plan
	State    State
	Outcome  State
	ExitCode int
	Err      error
	// Dump is the session diagnostic captured on operational failure.
	Dump     string
	Started  time.Time
	Duration time.Duration
}

func (r *Result) Ok() bool {
	return r.Outcome == ExitOk
}

func (r *Result) finish(err error) *Result {
	r.Duration = time.Since(r.Started)
	r.Err = err
	if err == nil {
		r.Outcome = ExitOk
		r.ExitCode = 0
		return r
	}
	var configErr *ConfigError
	if errors.As(err, &configErr) {
		r.Outcome = ExitFailConfig
	} else {
		r.Outcome = ExitFailGeneric
	}
	r.ExitCode = 1
	return r
}

// Run performs the deployment sequence exactly once: assemble configuration,
// materialize the archive, connect, deploy, activate, disconnect. It stops at
// the first failure, leaving the session and the domain as they are.
func Run(ctx context.Context, req Request, open SessionFactory) *Result {
	res := &Result{ID: newRunId(), State: Start, Started: time.Now()}

	plan, err := Assemble(req.Properties, req.Variant)
	if err != nil {
		return res.finish(err)
	}
	res.Plan = plan
	res.State = ConfigReady
	if config.Verbose {
		log.Printf("Running %s using user: %s password: %s t3url: %s application name: %s archive: %s targets: %s",
			req.Variant, plan.Username, util.Mask(plan.Password), plan.URL, plan.ApplicationName,
			plan.Source, strings.Join(plan.Targets, ","))
	}

	staged, err := Materialize(ctx, plan, req.WorkDir)
	if err != nil {
		return res.finish(err)
	}
	if staged {
		res.State = Decoded
	}

	session := open(plan.Application())
	fail := func(op string, err error) *Result {
		if util.ContextCanceled(err) {
			util.Warn("Deployment interrupted during %s, domain edit session may be left open", op)
		}
		res.Dump = session.DumpStack()
		return res.finish(&OperationError{Op: op, Err: err})
	}

	log.Print("connecting to the admin server")
	if err := session.Connect(ctx, plan.Username, plan.Password, plan.URL); err != nil {
		return fail(OpConnect, err)
	}
	res.State = Connected

	log.Print("deploying...")
	if plan.Variant == EncodedVariant {
		err = session.Deploy(ctx, plan.Application())
	} else {
		err = session.DeployDefault(ctx)
	}
	if err != nil {
		return fail(OpDeploy, err)
	}
	res.State = Deployed

	log.Print("activating changes")
	if err := session.Activate(ctx, plan.Application()); err != nil {
		return fail(OpActivate, err)
	}
	res.State = Activated

	log.Print("done with deployment")
	if err := session.Disconnect(ctx); err != nil {
		return fail(OpDisconnect, err)
	}
	res.State = Disconnected
	return res.finish(nil)
}

// Failed is the result of a run that could not start, ie. properties file
// cannot be read.
func Failed(err error) *Result {
	res := &Result{ID: newRunId(), State: Start, Started: time.Now()}
	return res.finish(err)
}

func newRunId() string {
	id, err := uuid.NewRandom()
	if err != nil {
		util.Warn("Unable to generate run random v4 UUID: %v", err)
		return ""
	}
	return id.String()
}
