package schema

import "keypest/pkg/contract"

// PEST 控制文件的输入块 Schema。字段顺序即写出顺序。

func req(name string, t Type) Field { return Field{Name: name, Type: t, Required: true} }

func opt(name string, t Type) Field { return Field{Name: name, Type: t} }

func def(name string, t Type, v string) Field { return Field{Name: name, Type: t, Required: true, Default: &v} }

func keywords(name string, fields ...Field) Block {
	return Block{Name: name, Kind: contract.KeywordBlockKind, Fields: fields}
}

func table(name string, cols ...Field) Block {
	return Block{Name: name, Kind: contract.TableBlockKind, Fields: cols}
}

// PESTBlocks 返回 PEST 默认块表（每次调用返回新切片）。
func PESTBlocks() []Block {
	return []Block{
		keywords("control_data",
			req("RSTFLE", String), req("PESTMODE", String),
			req("NPAR", Int), req("NOBS", Int), req("NPARGP", Int), req("NPRIOR", Int), req("NOBSGP", Int),
			opt("MAXCOMPDIM", Int),
			req("NTPLFLE", Int), req("NINSFLE", Int),
			def("PRECIS", String, "single"), def("DPOINT", String, "point"),
			opt("NUMCOM", Int), opt("JACFILE", Int), opt("MESSFILE", Int),
			req("RLAMBDA1", Real), def("RLAMFAC", Real, "-3"), req("PHIRATSUF", Real), req("PHIREDLAM", Real),
			def("NUMLAM", Int, "10"), def("JACUPDATE", Int, "999"), def("LAMFORGIVE", String, "lamforgive"),
			req("RELPARMAX", Real), req("FACPARMAX", Real), req("FACORIG", Real),
			opt("IBOUNDSTICK", Int), opt("UPVECBEND", Int),
			req("PHIREDSWH", Real), opt("NOPTSWITCH", Int), opt("SPLITSWH", Real),
			def("DOAUI", String, "noaui"), def("DOSENREUSE", String, "senreuse"),
			def("NOPTMAX", Int, "25"), req("PHIREDSTP", Real), req("NPHISTP", Int), req("NPHINORED", Int),
			req("RELPARSTP", Real), req("NRELPAR", Int), opt("PHISTOPTHRESH", Real),
			def("LASTRUN", Int, "1"), opt("PHIABANDON", Real),
			def("ICOV", Int, "1"), def("ICOR", Int, "1"), def("IEIG", Int, "1"), def("IRES", Int, "1"),
			def("JCOSAVE", String, "jcosave"), def("VERBOSEREC", String, "verboserec"),
			def("JCOSAVEITN", String, "nojcosaveitn"), def("REISAVEITN", String, "reisaveitn"),
			def("PARSAVEITN", String, "parsaveitn"),
		),
		keywords("automatic_user_intervention",
			req("MAXAUI", Int), req("AUISTARTOPT", Int), req("NOAUIPHIRAT", Real), req("AUIRESTITN", Int),
			req("AUISENSRAT", Real), req("AUIHOLDMAXCHG", Int), req("AUINUMFREE", Int),
			req("AUIPHIRATSUF", Real), req("AUIPHIRATACCEPT", Real), req("NAUINOACCEPT", Int),
		),
		keywords("singular_value_decomposition",
			def("SVDMODE", Int, "1"), req("MAXSING", Int), def("EIGTHRESH", Real, "0.5e-7"), def("EIGWRITE", Int, "0"),
		),
		keywords("lsqr",
			req("LSQRMODE", Int), req("LSQR_ATOL", Real), req("LSQR_BTOL", Real), req("LSQR_CONLIM", Real),
			req("LSQR_ITNLIM", Int), req("LSQRWRITE", Int),
		),
		keywords("svd_assist",
			req("BASEPESTFILE", String), req("BASEJACFILE", String),
			def("SVDA_MULBPA", Int, "1"), req("SVDA_SCALADJ", Int), req("SVDA_EXTSUPER", Int),
			def("SVDA_SUPDERCALC", Int, "1"), opt("SVDA_PAR_EXCL", Int),
		),
		keywords("sensitivity_reuse",
			req("SENRELTHRESH", Real), req("SENMAXREUSE", Int),
			req("SENALLCALCINT", Int), req("SENPREDWEIGHT", Real), req("SENPIEXCLUDE", String),
		),
		keywords("derivatives_command_line",
			req("DERCOMLINE", String), req("EXTDERFLE", String),
		),
		keywords("model_command_line",
			req("COMLINE", String),
		),
		keywords("predictive_analysis",
			req("NPREDMAXMIN", Int), opt("PREDNOISE", Int),
			req("PD0", Real), req("PD1", Real), req("PD2", Real),
			req("ABSPREDLAM", Real), req("RELPREDLAM", Real), req("INITSCHFAC", Real), req("MULSCHFAC", Real), req("NSEARCH", Int),
			req("ABSPREDSWH", Real), req("RELPREDSWH", Real),
			req("NPREDNORED", Int), req("ABSPREDSTP", Real), req("RELPREDSTP", Real), req("NPREDSTP", Int),
		),
		keywords("regularisation",
			req("PHIMLIM", Real), req("PHIMACCEPT", Real), opt("FRACPHIM", Real), def("MEMSAVE", String, "nomemsave"),
			req("WFINIT", Real), req("WFMIN", Real), req("WFMAX", Real), opt("LINREG", String), def("REGCONTINUE", String, "nocontinue"),
			req("WFFAC", Real), req("WFTOL", Real), req("IREGADJ", Int),
			opt("NOPTREGADJ", Int), opt("REGWEIGHTRAT", Real), opt("REGSINGTHRESH", Real),
		),
		keywords("pareto",
			req("PARETO_OBSGROUP", String),
			req("PARETO_WTFAC_START", Real), req("PARETO_WTFAC_FIN", Real), req("NUM_WTFAC_INC", Int),
			req("NUM_ITER_START", Int), req("NUM_ITER_GEN", Int), req("NUM_ITER_FIN", Int),
			req("ALT_TERM", Int),
			opt("OBS_TERM", String), opt("ABOVE_OR_BELOW", String), opt("OBS_THRESH", Real), opt("NUM_ITER_THRESH", Int),
			req("NOBS_REPORT", Int),
		),

		table("parameter_groups",
			req("PARGPNME", String), req("INCTYP", String), req("DERINC", Real), req("DERINCLB", Real),
			req("FORCEN", String), req("DERINCMUL", Real), req("DERMTHD", String),
			opt("SPLITTHRESH", Real), opt("SPLITRELDIFF", Real), opt("SPLITACTION", String),
		),
		table("parameter_data",
			req("PARNME", String), req("PARTRANS", String), req("PARCHGLIM", String),
			req("PARVAL1", Real), req("PARLBND", Real), req("PARUBND", Real), req("PARGP", String),
			req("SCALE", Real), req("OFFSET", Real), req("DERCOM", Int),
		),
		table("parameter_tied_data",
			req("PARNME", String), req("PARTIED", String),
		),
		table("observation_groups",
			req("OBGNME", String), opt("GTARG", Real), opt("COVFLE", String),
		),
		table("observation_data",
			req("OBSNME", String), req("OBSVAL", Real), req("WEIGHT", Real), req("OBGNME", String),
		),
		table("model_command_line",
			req("COMLINE", String),
		),
		table("model_input",
			req("TEMPFLE", String), req("INFLE", String),
		),
		table("model_output",
			req("INSFLE", String), req("OUTFLE", String),
		),
		{
			Name:     "prior_information",
			Kind:     contract.TableBlockKind,
			Fields:   []Field{req("PILINES", String)},
			FreeForm: true,
		},
	}
}

// PESTAliases: 历史拼写别名。regularization 与 regularisation 指向同一 Schema，
// 但在写出期二者互斥。
func PESTAliases() map[string]string {
	return map[string]string{
		"regularization":   "regularisation",
		"paramater_groups": "parameter_groups",
		"paramater_data":   "parameter_data",
	}
}

// PEST 返回默认 PEST Registry。
func PEST() *Registry {
	r, err := New(PESTBlocks(), PESTAliases())
	if err != nil {
		// 内置表自洽，出错即为编程错误。
		panic(err)
	}
	return r
}
