package analysis

import (
	"encoding/json"
	"strings"

	"github.com/unalkalkan/la5asni/pkg/types"
)

const arabicAnalysisPrompt = `أنت خبير في تصميم البرامج التدريبية للموظفين والشركات.

حلّل المستند التدريبي التالي واستخرج:
1. ملخصاً عاماً للمحتوى في سطرين أو ثلاثة.
2. النقاط التعليمية الأساسية: أهم المفاهيم أو المهارات التي يغطيها المحتوى.
3. الوحدات التدريبية: قسّم المحتوى إلى وحدات منظمة، لكل وحدة عنوان واضح ووصف مختصر.
4. الزمن المقدّر لكل وحدة بالدقائق حسب كثافة المعلومات وتعقيدها.

{{context}}
أجب فقط بصيغة JSON صحيحة بهذا الشكل ودون أي نص إضافي:
{
  "summary": "ملخص المحتوى",
  "key_points": ["نقطة ١", "نقطة ٢"],
  "training_modules": [
    {"title": "وحدة ١", "description": "وصف مختصر", "estimated_minutes": 30}
  ]
}

المستند:
{{document}}
`

const englishAnalysisPrompt = `You are an expert corporate instructional designer.

Analyze the following training document and extract:
1. A concise summary (2-3 sentences).
2. Key learning points: the core concepts or skills covered.
3. Training modules: divide the content into organized modules, each with a clear title and a brief description.
4. An estimated duration in minutes for each module, based on content density and complexity.

{{context}}
Respond only with valid JSON in exactly this shape, with no other text:
{
  "summary": "string",
  "key_points": ["point1", "point2"],
  "training_modules": [
    {"title": "module1", "description": "brief description", "estimated_minutes": 30}
  ]
}

Document:
{{document}}
`

const arabicContextHeader = "إذا احتجت سياقاً إضافياً، هذه بعض المعلومات:\n"

const englishContextHeader = "If needed, here is additional context from external sources:\n"

const refinePrompt = `You are given a training analysis as JSON and a refinement instruction from the user.

Refinement instruction:
{{instruction}}

Original JSON:
{{original}}

Return the complete updated JSON only, using exactly the same structure and keeping the language of the original.
`

// BuildPrompt renders the analysis prompt. Arabic documents get an Arabic
// prompt; everything else uses English. Empty context is omitted.
func BuildPrompt(text, lang, context string) string {
	tmpl, header := englishAnalysisPrompt, englishContextHeader
	if lang == "ar" {
		tmpl, header = arabicAnalysisPrompt, arabicContextHeader
	}

	block := ""
	if strings.TrimSpace(context) != "" {
		block = header + context + "\n"
	}

	return strings.NewReplacer("{{context}}", block, "{{document}}", text).Replace(tmpl)
}

// refinableFields is the part of an analysis the model may rewrite
type refinableFields struct {
	Summary         string                 `json:"summary"`
	KeyPoints       []string               `json:"key_points"`
	TrainingModules []types.TrainingModule `json:"training_modules"`
}

// BuildRefinePrompt renders the refinement prompt for original.
func BuildRefinePrompt(original *types.Analysis, instruction string) (string, error) {
	data, err := json.MarshalIndent(refinableFields{
		Summary:         original.Summary,
		KeyPoints:       original.KeyPoints,
		TrainingModules: original.TrainingModules,
	}, "", "  ")
	if err != nil {
		return "", err
	}

	return strings.NewReplacer(
		"{{instruction}}", instruction,
		"{{original}}", string(data),
	).Replace(refinePrompt), nil
}
