package shell

import (
	"errors"

	"github.com/rs/zerolog/log"
	lua "github.com/yuin/gopher-lua"
	luajson "layeh.com/gopher-json"

	"github.com/domino14/dicegame/model"
	"github.com/domino14/dicegame/pricing"
)

func getShell(L *lua.LState) *ShellController {
	shell := L.GetGlobal("dice_shell")
	ud, ok := shell.(*lua.LUserData)
	if !ok {
		panic("luserdata not right type")
	}
	sc, ok := ud.Value.(*ShellController)
	if !ok {
		panic("shellcontroller not right type")
	}
	return sc
}

// pushResult pushes v, or nil and the error message, and returns the
// number of results pushed.
func pushResult(L *lua.LState, v float64, err error) int {
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LNumber(v))
	return 1
}

func Value(L *lua.LState) int {
	n := L.CheckInt(1)
	v, err := pricing.ExactValue(n)
	return pushResult(L, v, err)
}

func Price(L *lua.LState) int {
	n := L.CheckInt(1)
	v, err := pricing.FairPrice(n)
	return pushResult(L, v, err)
}

func Toss(L *lua.LState) int {
	m := L.CheckInt(1)
	L.Push(lua.LNumber(pricing.MthToss(m)))
	return 1
}

func Model(L *lua.LState) int {
	kind, err := model.ParseKind(L.CheckString(1))
	if err != nil {
		return pushResult(L, 0, err)
	}
	x := float64(L.CheckNumber(2))
	p := getShell(L).config.ModelParams()
	if err := p.Validate(); err != nil {
		return pushResult(L, 0, err)
	}
	return pushResult(L, p.Func(kind)(x), nil)
}

// Exec runs any shell command and returns its output.
func Exec(L *lua.LState) int {
	line := L.CheckString(1)
	sc := getShell(L)
	cmd, err := extractFields(line)
	if err != nil {
		log.Err(err).Msg("error-parsing-command")
		L.Push(lua.LString("ERROR: " + err.Error()))
		return 1
	}
	var r *Response
	switch cmd.cmd {
	case "script", "exit", "bye":
		err = errors.New(cmd.cmd + " is not available inside scripts")
	default:
		r, err = sc.standardModeSwitch(line, nil)
	}
	if err != nil {
		log.Err(err).Msg("error-executing-command")
		L.Push(lua.LString("ERROR: " + err.Error()))
		return 1
	}
	if r == nil {
		L.Push(lua.LString(""))
	} else {
		L.Push(lua.LString(r.message))
	}
	return 1
}

func (sc *ShellController) script(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return nil, errors.New("need arguments for script")
	}

	filepath := cmd.args[0]

	L := lua.NewState()
	defer L.Close()
	luajson.Preload(L)

	lsc := L.NewUserData()
	lsc.Value = sc

	L.SetGlobal("dice_shell", lsc)
	L.SetGlobal("dice_value", L.NewFunction(Value))
	L.SetGlobal("dice_price", L.NewFunction(Price))
	L.SetGlobal("dice_toss", L.NewFunction(Toss))
	L.SetGlobal("dice_model", L.NewFunction(Model))
	L.SetGlobal("dice_exec", L.NewFunction(Exec))

	args := L.NewTable()
	for _, a := range cmd.args[1:] {
		args.Append(lua.LString(a))
	}
	L.SetGlobal("arg", args)

	if err := L.DoFile(filepath); err != nil {
		log.Err(err).Msg("there was a error")
		return nil, err
	}
	return nil, nil
}
