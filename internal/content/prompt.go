package content

import (
	"fmt"
	"strings"
)

// DefaultTip is posted when tip generation fails.
const DefaultTip = "💡 نصيحة: استمر في الممارسة والتركيز على فهم المفاهيم الأساسية."

const (
	tipPrefix    = "💡 نصيحة:"
	answerMarker = "✅ الإجابة:"
)

const solutionTemplate = `أنت معلم رياضيات يشرح بطريقة بسيطة وسهلة للطلاب.

حل هذه المسألة بشكل مختصر وواضح جداً:

الموضوع: %s

المسألة:
%s

متطلبات الحل:
1. اكتب بالعربية فقط - بدون رموز LaTeX أو $ أو معادلات معقدة
2. استخدم أرقام وكلمات عادية فقط
3. اجعل الحل قصير جداً (3-5 خطوات فقط)
4. كل خطوة سطر واحد أو سطرين
5. اشرح بكلمات بسيطة بدون تعقيد
6. الإجابة النهائية واضحة جداً في السطر الأخير

الصيغة المطلوبة:

الحل:
1. [خطوة واحدة بسيطة]
2. [خطوة واحدة بسيطة]
3. [خطوة واحدة بسيطة]

` + answerMarker + ` [الإجابة بوضوح]

ابدأ الآن:`

const tipTemplate = `أنت معلم رياضيات محترف. قم بكتابة نصيحة تعليمية قصيرة جداً عن موضوع: %s

المتطلبات:
- النصيحة بالعربية فقط
- سطر واحد فقط (بدون أسطر إضافية)
- نصيحة عملية وقيمة
- بدون رموز أو معادلات معقدة
- ابدأ بـ "` + tipPrefix + `"

مثال:
` + tipPrefix + ` تذكر دائماً تطبيق نفس العملية على الطرفين عند حل المعادلات.

ابدأ الآن:`

const variantTemplate = `أنت معلم رياضيات محترف. قم بإنشاء متغير جديد من المسألة التالية:

المسألة الأصلية:
%s

المتطلبات:
1. احتفظ بنفس المفهوم الرياضي
2. غير الأرقام والمتغيرات
3. اكتب المسألة ب%s فقط
4. اجعل المسألة بنفس مستوى الصعوبة
5. اكتب فقط المسألة الجديدة بدون شرح

أعد النتيجة في الحقل "question".`

func buildSolutionPrompt(question, topic string) string {
	return fmt.Sprintf(solutionTemplate, strings.TrimSpace(topic), strings.TrimSpace(question))
}

func buildTipPrompt(topic string) string {
	return fmt.Sprintf(tipTemplate, strings.TrimSpace(topic))
}

func buildVariantPrompt(question, language string) string {
	return fmt.Sprintf(variantTemplate, strings.TrimSpace(question), strings.TrimSpace(language))
}

// firstLine returns the first non-empty line of s, trimmed.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
