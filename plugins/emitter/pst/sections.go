package pst

import (
	"strconv"
	"strings"

	"keypest/pkg/contract"
	"keypest/pkg/schema"
)

// section: 输出文件中的一个具名节。
type section struct {
	title string
	emit  func(o *out) error
}

// kwLine: 关键字节中的一行。when 为 nil 表示总是写出；
// 条件成立时该行全部字段视为必需。
type kwLine struct {
	fields []string
	when   func(vals map[string]contract.Value) (bool, error)
}

func ln(fields ...string) kwLine { return kwLine{fields: fields} }

// prepFunc 在写出前补全跨块默认值；vals 为副本，可修改。
type prepFunc func(o *out, kb *contract.KeywordBlock, vals map[string]contract.Value) error

// sections: 固定写出顺序，与输入中块的先后无关。
var sections = []section{
	keywordSection("control data", "control_data", true, nil,
		ln("RSTFLE", "PESTMODE"),
		ln("NPAR", "NOBS", "NPARGP", "NPRIOR", "NOBSGP", "MAXCOMPDIM"),
		ln("NTPLFLE", "NINSFLE", "PRECIS", "DPOINT", "NUMCOM", "JACFILE", "MESSFILE"),
		ln("RLAMBDA1", "RLAMFAC", "PHIRATSUF", "PHIREDLAM", "NUMLAM", "JACUPDATE", "LAMFORGIVE"),
		ln("RELPARMAX", "FACPARMAX", "FACORIG", "IBOUNDSTICK", "UPVECBEND"),
		ln("PHIREDSWH", "NOPTSWITCH", "SPLITSWH", "DOAUI", "DOSENREUSE"),
		ln("NOPTMAX", "PHIREDSTP", "NPHISTP", "NPHINORED", "RELPARSTP", "NRELPAR", "PHISTOPTHRESH", "LASTRUN", "PHIABANDON"),
		ln("ICOV", "ICOR", "IEIG", "IRES", "JCOSAVE", "VERBOSEREC", "JCOSAVEITN", "REISAVEITN", "PARSAVEITN"),
	),
	keywordSection("automatic user intervention", "automatic_user_intervention", false, nil,
		ln("MAXAUI", "AUISTARTOPT", "NOAUIPHIRAT", "AUIRESTITN"),
		ln("AUISENSRAT", "AUIHOLDMAXCHG", "AUINUMFREE"),
		ln("AUIPHIRATSUF", "AUIPHIRATACCEPT", "NAUINOACCEPT"),
	),
	keywordSection("singular value decomposition", "singular_value_decomposition", false, nil,
		ln("SVDMODE"),
		ln("MAXSING", "EIGTHRESH"),
		ln("EIGWRITE"),
	),
	keywordSection("lsqr", "lsqr", false, nil,
		ln("LSQRMODE"),
		ln("LSQR_ATOL", "LSQR_BTOL", "LSQR_CONLIM", "LSQR_ITNLIM"),
		ln("LSQRWRITE"),
	),
	keywordSection("svd assist", "svd_assist", false, nil,
		ln("BASEPESTFILE"),
		ln("BASEJACFILE"),
		ln("SVDA_MULBPA", "SVDA_SCALADJ", "SVDA_EXTSUPER", "SVDA_SUPDERCALC", "SVDA_PAR_EXCL"),
	),
	keywordSection("sensitivity reuse", "sensitivity_reuse", false, nil,
		ln("SENRELTHRESH", "SENMAXREUSE"),
		ln("SENALLCALCINT", "SENPREDWEIGHT", "SENPIEXCLUDE"),
	),
	tableSection("parameter groups", true, "parameter_groups"),
	tableSection("parameter data", true, "parameter_data", "parameter_tied_data"),
	tableSection("observation groups", true, "observation_groups"),
	tableSection("observation data", true, "observation_data"),
	keywordSection("derivatives command line", "derivatives_command_line", false, nil,
		ln("DERCOMLINE"),
		ln("EXTDERFLE"),
	),
	{title: "model command line", emit: emitModelCommandLine},
	{title: "model input/output", emit: emitModelIO},
	tableSection("prior information", false, "prior_information"),
	keywordSection("predictive analysis", "predictive_analysis", false, nil,
		ln("NPREDMAXMIN", "PREDNOISE"),
		ln("PD0", "PD1", "PD2"),
		ln("ABSPREDLAM", "RELPREDLAM", "INITSCHFAC", "MULSCHFAC", "NSEARCH"),
		ln("ABSPREDSWH", "RELPREDSWH"),
		ln("NPREDNORED", "ABSPREDSTP", "RELPREDSTP", "NPREDSTP"),
	),
	keywordSection("regularisation", "regularisation", false, phimDefaults,
		ln("PHIMLIM", "PHIMACCEPT", "FRACPHIM", "MEMSAVE"),
		ln("WFINIT", "WFMIN", "WFMAX", "LINREG", "REGCONTINUE"),
		ln("WFFAC", "WFTOL", "IREGADJ", "NOPTREGADJ", "REGWEIGHTRAT", "REGSINGTHRESH"),
	),
	keywordSection("pareto", "pareto", false, nil,
		ln("PARETO_OBSGROUP"),
		ln("PARETO_WTFAC_START", "PARETO_WTFAC_FIN", "NUM_WTFAC_INC"),
		ln("NUM_ITER_START", "NUM_ITER_GEN", "NUM_ITER_FIN"),
		ln("ALT_TERM"),
		kwLine{fields: []string{"OBS_TERM", "ABOVE_OR_BELOW", "OBS_THRESH", "NUM_ITER_THRESH"}, when: altTermSet},
		ln("NOBS_REPORT"),
	),
}

// keywordSection 由关键字块生成节。
func keywordSection(title, block string, required bool, prep prepFunc, lines ...kwLine) section {
	return section{title: title, emit: func(o *out) error {
		kb, sch, err := o.keywords(block, required)
		if err != nil || kb == nil {
			return err
		}
		vals := make(map[string]contract.Value, len(kb.Fields))
		for k, v := range kb.Fields {
			vals[k] = v
		}
		if prep != nil {
			if err := prep(o, kb, vals); err != nil {
				return err
			}
		}
		o.header(title)
		for _, l := range lines {
			strict := false
			if l.when != nil {
				ok, err := l.when(vals)
				if err != nil {
					return err
				}
				if !ok {
					continue
				}
				strict = true
			}
			if err := o.keywordLine(kb.Name, sch, vals, l.fields, strict); err != nil {
				return err
			}
		}
		return nil
	}}
}

// tableSection 依次拼接多个表块；首个块决定节是否存在，其余块可选。
func tableSection(title string, required bool, blocks ...string) section {
	return section{title: title, emit: func(o *out) error {
		head, sch, err := o.table(blocks[0], required)
		if err != nil || head == nil {
			return err
		}
		o.header(title)
		if err := o.tableRows(head, sch); err != nil {
			return err
		}
		for _, name := range blocks[1:] {
			tb, sch, err := o.table(name, false)
			if err != nil {
				return err
			}
			if tb == nil {
				continue
			}
			if err := o.tableRows(tb, sch); err != nil {
				return err
			}
		}
		return nil
	}}
}

// emitModelCommandLine: 可来自关键字块（单行）或表块（多行），二者互斥。
func emitModelCommandLine(o *out) error {
	const block = "model_command_line"
	if err := o.conflict(block); err != nil {
		return err
	}
	if kb := o.b.Keywords[block]; kb != nil {
		sch, err := o.reg.Lookup(contract.KeywordBlockKind, block)
		if err != nil {
			return err
		}
		o.header("model command line")
		return o.keywordLine(kb.Name, sch, kb.Fields, []string{"COMLINE"}, false)
	}
	tb, sch, err := o.table(block, true)
	if err != nil {
		return err
	}
	o.header("model command line")
	return o.tableRows(tb, sch)
}

// emitModelIO: 先全部模板文件行，再全部指令文件行；两者均必需。
func emitModelIO(o *out) error {
	in, insch, err := o.table("model_input", true)
	if err != nil {
		return err
	}
	outp, outsch, err := o.table("model_output", true)
	if err != nil {
		return err
	}
	o.header("model input/output")
	if err := o.tableRows(in, insch); err != nil {
		return err
	}
	return o.tableRows(outp, outsch)
}

// phimDefaults: PHIMLIM 缺省取 control data 的 NOBS；PHIMACCEPT 缺省取 1.05×PHIMLIM。
// 两者均在写出前解析完成。
func phimDefaults(o *out, kb *contract.KeywordBlock, vals map[string]contract.Value) error {
	if !vals["PHIMLIM"].Present {
		if cd := o.b.Keywords["control_data"]; cd != nil && cd.Fields["NOBS"].Present {
			vals["PHIMLIM"] = cd.Fields["NOBS"]
		}
	}
	lim := vals["PHIMLIM"]
	if !vals["PHIMACCEPT"].Present && lim.Present {
		x, err := parseReal(lim.Text)
		if err != nil {
			return &contract.TypeMismatchError{Field: "PHIMLIM", Block: kb.Name, Want: schema.Real.String(), Value: lim.Text}
		}
		vals["PHIMACCEPT"] = contract.Some(strconv.FormatFloat(1.05*x, 'g', -1, 64))
	}
	return nil
}

// altTermSet: ALT_TERM 非零时写出替代终止条件行。
func altTermSet(vals map[string]contract.Value) (bool, error) {
	v := vals["ALT_TERM"]
	if !v.Present {
		return false, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v.Text), 10, 64)
	if err != nil {
		return false, &contract.TypeMismatchError{Field: "ALT_TERM", Block: "pareto", Want: schema.Int.String(), Value: v.Text}
	}
	return n != 0, nil
}
