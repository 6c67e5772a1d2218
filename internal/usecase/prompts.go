package usecase

import (
	"fmt"
	"strings"

	"testgen/internal/domain"
)

const proposeTestsPrompt = `
You're an advanced AI test case generator.
Given a user prompt and a target function, propose detailed test cases for the function based on the prompt, categorizing each as either a 'happy path' or an 'edge case'.

The user prompt is as follows:

{user_prompt}

The target function is {function_name}, located in the file {file_path}.

Here's the relevant source code of the function:

{relevant_content}

For each test case, provide a description that includes:
- A brief explanation of the test's purpose
- The specific conditions being tested.
- The expected outcome the test is verifying.
Each description should be a single sentence, as concise as possible.

Categorize each test case as:
- 'happy path': Tests the function with typical inputs and standard conditions, ensuring it performs as expected in normal use.
- 'edge case': Tests the function with atypical inputs or in unusual conditions, checking its robustness and error handling.

You don't have to write the test cases in code, just describe them in plain {chat_language}.

Aim to generate 3 'happy path' test cases and 3 'edge case' test cases, totaling 6 test cases.

{answer_format}
`

const proposeJSONFormat = `Answer in JSON format:
{
    "test_cases": [
        {"description": "<describe test case 1 in {chat_language}>", "category": "happy path"},
        ...
        {"description": "<describe test case 4 in {chat_language}>", "category": "edge case"},
        ...
    ]
}`

const proposeLinesFormat = `Answer with one test case per line, in the form "<category>: <description>", and nothing else.`

const writeTestsPrompt = `
You're an advanced AI test case generator.
Given a target function, some relevant source code, some reference test code, and a list of specific test case descriptions, write the test cases in code.
Each test case should be self-contained and close to executable as possible.

The target function is {function_name}, located in the file {file_path}.
Here's the relevant source code of the function:

{relevant_content}

{reference_content}

Here's the list of test case descriptions:

{test_cases}

Answer in {chat_language} with the following requirements:

Basic requirements

1. Put all the test code in a single code block.
2. Use the content of the reference test cases as a model if possible. Ensuring you use the same test framework and mock library, and apply comparable mocking strategies and best practices.
3. Describe the test cases in comment in the same order as the list above.
4. Include libraries at the top of the code block if needed.
5. If two or more test cases share the same setup, you should reuse the setup code.
6. If two or more test cases share the same test logic, you should reuse the test logic.
7. Use TODO comments or FIXME comments to indicate any missing parts of the code or any parts that need to be improved.

{additional_requirements}
`

const recommendSymbolsPrompt = `
You're an advanced AI test generator.

You're about to write test cases for the function ` + "`{function_name}`" + ` in the file ` + "`{file_path}`" + `.
Before you start, you need to check if you have enough context information to write the test cases.

Here is the source code of the function:

` + "```" + `
{function_content}
` + "```" + `

And here are some context information that might help you write the test cases:


{context_content}


Do you think the context information is enough?
If the information is insufficient, recommend which symbols or types you need to know more about.

Return a JSON object with a single key "key_symbols" whose value is a list of strings.
- If the context information is enough, return an empty list.
- Each string is the name of a symbol or type appearing in the function that lacks context information for writing test.
- The list should contain the most important symbols and should not exceed 10 items.

JSON Format Example:
{
    "key_symbols": ["<symbol 1>", "<symbol 2>", "<symbol 3>",...]
}
`

const findReferenceTestsPrompt = `
As an advanced AI coding assistant,
you're given the task to identify suitable reference test files that can be used as a guide
for writing test cases for a specific function in the codebase.

You're provided with a list of test files in the repository.
Infer the purpose of each test file and identify the top {count} key files
that may be relevant to the target function and can serve as a reference for writing test cases.
The reference could provide a clear example of best practices
in testing functions of a similar nature.

The target function is {function_name}, located in the file {file_path}.
The list of test files in the repository is as follows:

{test_files}


Answer in JSON format with a list of the top {count} key file paths under the key ` + "`files`" + `.
Make sure each file path is from the list of test files provided above.

Example:
{
    "files": ["<file path 1>", "<file path 2>", "<file path 3>"]
}
`

// fill replaces {name} placeholders. Unknown placeholders are left as is.
func fill(template string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for k, v := range values {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

func funcBlock(fn *domain.FuncToTest) (string, error) {
	content, err := fn.FuncContent()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("function code\n```\n%s\n```\n", content), nil
}

func classBlock(fn *domain.FuncToTest) (string, error) {
	content, ok, err := fn.ContainerContent()
	if err != nil || !ok {
		return "", err
	}
	return fmt.Sprintf("class code\n```\n%s\n```\n", content), nil
}

func contextBlock(contexts []domain.Context) string {
	if len(contexts) == 0 {
		return ""
	}
	return "\n\nrelevant context\n\n" + joinContexts(contexts) + "\n\n"
}

func joinContexts(contexts []domain.Context) string {
	parts := make([]string, len(contexts))
	for i, c := range contexts {
		parts[i] = c.String()
	}
	return strings.Join(parts, "\n\n")
}

func numbered(items []string) string {
	var b strings.Builder
	for i, item := range items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, item)
	}
	return b.String()
}
