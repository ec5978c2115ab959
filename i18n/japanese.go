package i18n

import "github.com/reoring/goskemac/verify"

func japanese(issue verify.Issue, ctx verify.ErrorMapContext) string {
	switch issue.Code {
	case verify.CodeInvalidType:
		if issue.Received == verify.ParsedUndefined {
			return "必須です"
		}
		return verify.FormatValue(issue.Expected) + " が必要ですが、" + verify.FormatValue(issue.Received) + " を受け取りました"
	case verify.CodeInvalidLiteral:
		return "リテラル値が不正です。" + stringify(issue.Expected) + " が必要です"
	case verify.CodeUnrecognizedKeys:
		return "未知のキーです: " + verify.JoinValues(anys(issue.Keys), ", ")
	case verify.CodeInvalidUnion, verify.CodeCustom:
		return "入力が不正です"
	case verify.CodeInvalidUnionDiscriminator:
		return "判別子の値が不正です。" + verify.JoinValues(issue.Options, " | ") + " のいずれかが必要です"
	case verify.CodeInvalidEnumValue:
		return "列挙値が不正です。" + verify.JoinValues(issue.Options, " | ") + " のいずれかが必要です"
	case verify.CodeInvalidDate:
		return "日付が不正です"
	case verify.CodeInvalidString:
		if issue.Validation == "regex" || issue.Validation == "" {
			return "形式が不正です"
		}
		return issue.Validation + " の形式が不正です"
	case verify.CodeTooSmall:
		switch issue.Type {
		case "array":
			return verify.FormatValue(issue.Minimum) + " 個以上の要素が必要です"
		case "string":
			return verify.FormatValue(issue.Minimum) + " 文字以上で入力してください"
		case "number":
			return verify.FormatValue(issue.Minimum) + " 以上の値が必要です"
		}
		return "小さすぎます"
	case verify.CodeTooBig:
		switch issue.Type {
		case "array":
			return verify.FormatValue(issue.Maximum) + " 個以下の要素にしてください"
		case "string":
			return verify.FormatValue(issue.Maximum) + " 文字以下で入力してください"
		case "number", "bigint":
			return verify.FormatValue(issue.Maximum) + " 以下の値が必要です"
		}
		return "大きすぎます"
	case verify.CodeInvalidIntersectionTypes:
		return "交差型の結果をマージできません"
	case verify.CodeNotMultipleOf:
		return verify.FormatValue(issue.MultipleOf) + " の倍数が必要です"
	case verify.CodeNotFinite:
		return "有限の数値が必要です"
	}
	return ctx.DefaultError
}
